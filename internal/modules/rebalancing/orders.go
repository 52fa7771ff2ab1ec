package rebalancing

import (
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SimulationResult bundles one simulation run. MP and Sub-MP orders stay
// separate lists; a consumer must never treat them as one trade plan.
type SimulationResult struct {
	RunID           string              `json:"run_id"`
	SimulatedAt     time.Time           `json:"simulated_at"`
	TotalEvalAmount float64             `json:"total_eval_amount"`
	Thresholds      domain.Thresholds   `json:"thresholds"`
	MPOrders        []domain.TradeOrder `json:"mp_orders"`
	SubMPOrders     []domain.TradeOrder `json:"sub_mp_orders"`
}

// OrderCount returns the total number of orders across both levels.
func (r *SimulationResult) OrderCount() int {
	return len(r.MPOrders) + len(r.SubMPOrders)
}

// DisplayOrder is a trade order with a unique ID and currency fields
// rendered to fixed two-decimal strings, safe for UI consumption without
// float formatting surprises.
type DisplayOrder struct {
	domain.TradeOrder
	ID             string `json:"id"`
	AmountDisplay  string `json:"amount_display"`
	PercentDisplay string `json:"percent_display"`
}

// FormatOrders renders orders for display. Each order gets a fresh ID;
// amounts round half-up to two decimals via decimal arithmetic.
func FormatOrders(orders []domain.TradeOrder) []DisplayOrder {
	formatted := make([]DisplayOrder, 0, len(orders))
	for _, order := range orders {
		formatted = append(formatted, DisplayOrder{
			TradeOrder:     order,
			ID:             uuid.New().String(),
			AmountDisplay:  decimal.NewFromFloat(order.Amount).StringFixed(2),
			PercentDisplay: decimal.NewFromFloat(order.Percent).StringFixed(2) + "%",
		})
	}
	return formatted
}
