package domain

// TradeLevel distinguishes asset-class orders from instrument orders
type TradeLevel string

const (
	TradeLevelMP    TradeLevel = "MP"
	TradeLevelSubMP TradeLevel = "SUB_MP"
)

// TradeAction is the direction of a simulated order
type TradeAction string

const (
	TradeActionBuy  TradeAction = "BUY"
	TradeActionSell TradeAction = "SELL"
)

// TradeOrder is a simulated (never executed) instruction sized to close
// drift. Amount is in portfolio currency units, Percent is the absolute
// drift magnitude that triggered the order. Derived, never persisted.
type TradeOrder struct {
	Level      TradeLevel  `json:"level"`
	AssetClass AssetClass  `json:"asset_class"`
	Ticker     string      `json:"ticker,omitempty"`
	Name       string      `json:"name,omitempty"`
	Action     TradeAction `json:"action"`
	Amount     float64     `json:"amount"`
	Percent    float64     `json:"percent"`
}
