// Package allocation holds the model portfolio store and the input
// normalization boundary of the drift engine. All external allocation data
// passes through here before any drift or trade computation sees it.
package allocation

import (
	"math"
	"strings"

	"github.com/driftline/ballast/internal/domain"
)

// SanitizePercent clamps malformed percentage input. NaN, infinities and
// negative values all degrade to 0 instead of propagating.
func SanitizePercent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Normalize returns an allocation set covering every asset class: missing
// entries filled with 0, malformed values clamped. Never fails.
func Normalize(set domain.AllocationSet) domain.AllocationSet {
	normalized := make(domain.AllocationSet, len(domain.AssetClasses()))
	for _, class := range domain.AssetClasses() {
		normalized[class] = SanitizePercent(set.Get(class))
	}
	return normalized
}

// SanitizeItems clamps item weights and trims identity fields. Items are
// kept even when unmatchable; matching layers skip keyless entries.
func SanitizeItems(items []domain.SubAllocationItem) []domain.SubAllocationItem {
	out := make([]domain.SubAllocationItem, len(items))
	for i, item := range items {
		item.Ticker = strings.TrimSpace(item.Ticker)
		item.Name = strings.TrimSpace(item.Name)
		item.WeightPercent = SanitizePercent(item.WeightPercent)
		out[i] = item
	}
	return out
}

// TotalOf sums item weights. Diagnostic only: the engine reports sums that
// stray from 100 but never force-renormalizes.
func TotalOf(items []domain.SubAllocationItem) float64 {
	total := 0.0
	for _, item := range items {
		total += SanitizePercent(item.WeightPercent)
	}
	return total
}

// RawItem mirrors the loosely shaped instrument entries external
// collaborators send: ticker may be absent and the weight may arrive under
// either "weight_percent" or "weight".
type RawItem struct {
	Ticker        string   `json:"ticker"`
	Name          string   `json:"name"`
	WeightPercent *float64 `json:"weight_percent"`
	Weight        *float64 `json:"weight"`
}

// Item converts a raw entry into the fixed domain shape
func (r RawItem) Item() domain.SubAllocationItem {
	weight := 0.0
	switch {
	case r.WeightPercent != nil:
		weight = *r.WeightPercent
	case r.Weight != nil:
		weight = *r.Weight
	}

	return domain.SubAllocationItem{
		Ticker:        strings.TrimSpace(r.Ticker),
		Name:          strings.TrimSpace(r.Name),
		WeightPercent: SanitizePercent(weight),
	}
}

// ParseItems converts a list of raw entries into domain items
func ParseItems(raw []RawItem) []domain.SubAllocationItem {
	items := make([]domain.SubAllocationItem, 0, len(raw))
	for _, r := range raw {
		items = append(items, r.Item())
	}
	return items
}

// ParseClassPercents converts a free-form class name to percent map into a
// normalized AllocationSet. Unknown class names are dropped and returned
// for caller diagnostics.
func ParseClassPercents(raw map[string]float64) (domain.AllocationSet, []string) {
	set := make(domain.AllocationSet)
	var unknown []string

	for name, pct := range raw {
		class, ok := domain.ParseAssetClass(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		set[class] = SanitizePercent(pct)
	}

	return Normalize(set), unknown
}
