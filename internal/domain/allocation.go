// Package domain provides core domain models shared across Ballast modules.
package domain

import "strings"

// AssetClass represents one top-level bucket of the model portfolio
type AssetClass string

const (
	AssetClassStocks       AssetClass = "STOCKS"
	AssetClassBonds        AssetClass = "BONDS"
	AssetClassAlternatives AssetClass = "ALTERNATIVES"
	AssetClassCash         AssetClass = "CASH"
)

// AssetClasses returns all asset classes in their fixed display order.
// Summaries, tie-breaking and trade synthesis all iterate this order.
func AssetClasses() []AssetClass {
	return []AssetClass{
		AssetClassStocks,
		AssetClassBonds,
		AssetClassAlternatives,
		AssetClassCash,
	}
}

// Ordinal returns the position of the asset class in the fixed order.
// Unknown classes sort after all known ones.
func (c AssetClass) Ordinal() int {
	for i, known := range AssetClasses() {
		if c == known {
			return i
		}
	}
	return len(AssetClasses())
}

// ParseAssetClass maps free-form input (case-insensitive, common aliases)
// onto a known asset class. Returns false when the input matches nothing.
func ParseAssetClass(s string) (AssetClass, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STOCKS", "STOCK", "EQUITY", "EQUITIES":
		return AssetClassStocks, true
	case "BONDS", "BOND", "FIXED_INCOME":
		return AssetClassBonds, true
	case "ALTERNATIVES", "ALTERNATIVE", "ALTS":
		return AssetClassAlternatives, true
	case "CASH":
		return AssetClassCash, true
	}
	return "", false
}

// AllocationSet maps asset classes to percentages for one side
// (target or actual). Missing classes mean 0. The two sides of a model
// are independent and neither is required to sum to 100.
type AllocationSet map[AssetClass]float64

// Get returns the percentage for a class, 0 when absent.
func (s AllocationSet) Get(class AssetClass) float64 {
	if s == nil {
		return 0
	}
	return s[class]
}

// SubAllocationItem is one instrument inside an asset class bucket,
// on either the target or the actual side.
type SubAllocationItem struct {
	Ticker        string  `json:"ticker,omitempty"`
	Name          string  `json:"name"`
	WeightPercent float64 `json:"weight_percent"`
}

// Key returns the identity used to match items across target and actual
// sides: ticker when present, otherwise name. An empty key means the item
// is unmatchable and gets skipped.
func (i SubAllocationItem) Key() string {
	if i.Ticker != "" {
		return i.Ticker
	}
	return i.Name
}

// IndexItems indexes items by their matching key, preserving first-seen
// key order. Duplicate keys keep the later item; keyless items are
// counted and dropped.
func IndexItems(items []SubAllocationItem) (map[string]SubAllocationItem, []string, int) {
	indexed := make(map[string]SubAllocationItem, len(items))
	keys := make([]string, 0, len(items))
	skipped := 0

	for _, item := range items {
		key := item.Key()
		if key == "" {
			skipped++
			continue
		}
		if _, seen := indexed[key]; !seen {
			keys = append(keys, key)
		}
		indexed[key] = item
	}

	return indexed, keys, skipped
}

// SubAllocationBucket holds both sides of one asset class drill-down.
type SubAllocationBucket struct {
	AssetClass AssetClass          `json:"asset_class"`
	Target     []SubAllocationItem `json:"target"`
	Actual     []SubAllocationItem `json:"actual"`
}

// RebalancingStatus is the full engine input assembled from the stored
// model portfolio and the latest holdings snapshot.
type RebalancingStatus struct {
	TargetAllocation AllocationSet         `json:"target_allocation"`
	ActualAllocation AllocationSet         `json:"actual_allocation"`
	SubAllocations   []SubAllocationBucket `json:"sub_allocations"`
	Thresholds       Thresholds            `json:"thresholds"`
}

// Default drift thresholds in percentage points.
const (
	DefaultMPThresholdPercent    = 3.0
	DefaultSubMPThresholdPercent = 5.0
)

// Thresholds holds the drift magnitudes (percentage points) at which a
// rebalancing trade is considered warranted, per level.
type Thresholds struct {
	MPPercent    float64 `json:"mp"`
	SubMPPercent float64 `json:"sub_mp"`
}

// DefaultThresholds returns the shipped threshold defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MPPercent:    DefaultMPThresholdPercent,
		SubMPPercent: DefaultSubMPThresholdPercent,
	}
}

// Sanitize replaces non-positive thresholds with the defaults.
// Thresholds must be positive for classification to make sense.
func (t Thresholds) Sanitize() Thresholds {
	if t.MPPercent <= 0 {
		t.MPPercent = DefaultMPThresholdPercent
	}
	if t.SubMPPercent <= 0 {
		t.SubMPPercent = DefaultSubMPThresholdPercent
	}
	return t
}
