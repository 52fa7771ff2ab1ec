package domain

// DriftStatus represents the severity bucket of a drift measurement
type DriftStatus string

const (
	// DriftStatusGreen - drift within 80% of the threshold
	DriftStatusGreen DriftStatus = "GREEN"
	// DriftStatusYellow - early warning band between 80% and 100% of the threshold
	DriftStatusYellow DriftStatus = "YELLOW"
	// DriftStatusRed - drift at or beyond the threshold, rebalancing warranted
	DriftStatusRed DriftStatus = "RED"
)

// Severity returns an ordering value for status comparison (higher is worse).
func (s DriftStatus) Severity() int {
	switch s {
	case DriftStatusRed:
		return 2
	case DriftStatusYellow:
		return 1
	default:
		return 0
	}
}

// DriftRecord captures one drift measurement. At MP level Key is empty and
// AssetClass identifies the row; at Sub-MP level Key carries the instrument
// identity (ticker, else name) within the class. Records are derived, never
// persisted as-is, and recomputed on every evaluation.
type DriftRecord struct {
	AssetClass    AssetClass  `json:"asset_class"`
	Key           string      `json:"key,omitempty"`
	Name          string      `json:"name,omitempty"`
	TargetPercent float64     `json:"target_percent"`
	ActualPercent float64     `json:"actual_percent"`
	DriftPercent  float64     `json:"drift_percent"`
	Status        DriftStatus `json:"status"`
}
