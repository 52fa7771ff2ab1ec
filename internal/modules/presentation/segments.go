// Package presentation converts allocation data into proportional segment
// lists for an external rendering layer. It owns the empty-bar and
// all-cash display policy so every consumer renders those edge cases the
// same way.
package presentation

import (
	"github.com/driftline/ballast/internal/domain"
)

// Segment is one renderable slice of a stacked bar. Value is the
// normalized width in percent of the bar; Amount is the currency amount
// the slice represents.
type Segment struct {
	Label    string  `json:"label"`
	Value    float64 `json:"value"`
	Amount   float64 `json:"amount"`
	ColorKey string  `json:"color_key"`
}

// PlaceholderLabel marks the single full-width segment rendered when a
// collection has no positive values at all.
const PlaceholderLabel = "Empty"

var classLabels = map[domain.AssetClass]string{
	domain.AssetClassStocks:       "Stocks",
	domain.AssetClassBonds:        "Bonds",
	domain.AssetClassAlternatives: "Alternatives",
	domain.AssetClassCash:         "Cash",
}

var classColorKeys = map[domain.AssetClass]string{
	domain.AssetClassStocks:       "stocks",
	domain.AssetClassBonds:        "bonds",
	domain.AssetClassAlternatives: "alternatives",
	domain.AssetClassCash:         "cash",
}

// ClassLabel returns the display label for an asset class.
func ClassLabel(class domain.AssetClass) string {
	if label, ok := classLabels[class]; ok {
		return label
	}
	return string(class)
}

// FromAllocationSet builds raw segments for one side of the MP bar, in
// the fixed class order. totalAmount sizes the per-segment amounts.
func FromAllocationSet(set domain.AllocationSet, totalAmount float64) []Segment {
	segments := make([]Segment, 0, len(domain.AssetClasses()))
	for _, class := range domain.AssetClasses() {
		pct := set.Get(class)
		segments = append(segments, Segment{
			Label:    ClassLabel(class),
			Value:    pct,
			Amount:   amountFor(totalAmount, pct),
			ColorKey: classColorKeys[class],
		})
	}
	return segments
}

// FromItems builds raw segments for one side of a class drill-down bar.
// classTotalAmount sizes the per-segment amounts.
func FromItems(items []domain.SubAllocationItem, classTotalAmount float64) []Segment {
	segments := make([]Segment, 0, len(items))
	for i, item := range items {
		label := item.Name
		if label == "" {
			label = item.Ticker
		}
		segments = append(segments, Segment{
			Label:    label,
			Value:    item.WeightPercent,
			Amount:   amountFor(classTotalAmount, item.WeightPercent),
			ColorKey: seriesColorKey(i),
		})
	}
	return segments
}

// Normalize scales segment values so their widths sum to 100. Zero-value
// segments are omitted; a collection with no positive values renders as
// a single full-width placeholder so the bar never collapses to zero
// width. Normalizing an already normalized list changes nothing.
func Normalize(segments []Segment) []Segment {
	sum := 0.0
	for _, segment := range segments {
		if segment.Value > 0 {
			sum += segment.Value
		}
	}

	if sum <= 0 {
		return []Segment{{
			Label:    PlaceholderLabel,
			Value:    100,
			Amount:   0,
			ColorKey: "empty",
		}}
	}

	normalized := make([]Segment, 0, len(segments))
	for _, segment := range segments {
		if segment.Value <= 0 {
			continue
		}
		segment.Value = segment.Value / sum * 100
		normalized = append(normalized, segment)
	}
	return normalized
}

// IsAllCash reports whether the actual allocation is entirely cash:
// Cash at 100 and every other class at 0 or absent.
func IsAllCash(actual domain.AllocationSet) bool {
	for _, class := range domain.AssetClasses() {
		if class == domain.AssetClassCash {
			continue
		}
		if actual.Get(class) != 0 {
			return false
		}
	}
	return actual.Get(domain.AssetClassCash) == 100
}

// CashActualItems returns the actual-side items for the Cash drill-down,
// synthesizing a single 100% cash item when the portfolio is entirely
// cash but the raw list is empty. Without this a fully-cash portfolio
// would drill down to "no data".
func CashActualItems(items []domain.SubAllocationItem, mpActual domain.AllocationSet) []domain.SubAllocationItem {
	if !IsAllCash(mpActual) {
		return items
	}
	for _, item := range items {
		if item.WeightPercent > 0 {
			return items
		}
	}
	return []domain.SubAllocationItem{{Ticker: "CASH", Name: "Cash", WeightPercent: 100}}
}

func amountFor(totalAmount, pct float64) float64 {
	if totalAmount <= 0 {
		return 0
	}
	return totalAmount * pct / 100
}

// seriesColorKey cycles a small palette for instrument segments.
func seriesColorKey(i int) string {
	keys := []string{"series-1", "series-2", "series-3", "series-4", "series-5", "series-6"}
	return keys[i%len(keys)]
}
