package allocation

import (
	"math"
	"testing"

	"github.com/driftline/ballast/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSanitizePercent(t *testing.T) {
	testCases := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"normal value", 42.5, 42.5},
		{"zero", 0, 0},
		{"negative clamps to zero", -10, 0},
		{"NaN clamps to zero", math.NaN(), 0},
		{"positive infinity clamps to zero", math.Inf(1), 0},
		{"negative infinity clamps to zero", math.Inf(-1), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizePercent(tc.input))
		})
	}
}

func TestNormalize_FillsMissingClasses(t *testing.T) {
	normalized := Normalize(domain.AllocationSet{
		domain.AssetClassStocks: 60,
	})

	assert.Len(t, normalized, 4)
	assert.Equal(t, 60.0, normalized[domain.AssetClassStocks])
	assert.Equal(t, 0.0, normalized[domain.AssetClassBonds])
	assert.Equal(t, 0.0, normalized[domain.AssetClassAlternatives])
	assert.Equal(t, 0.0, normalized[domain.AssetClassCash])
}

func TestNormalize_ClampsMalformedValues(t *testing.T) {
	normalized := Normalize(domain.AllocationSet{
		domain.AssetClassStocks: -5,
		domain.AssetClassBonds:  math.NaN(),
		domain.AssetClassCash:   10,
	})

	assert.Equal(t, 0.0, normalized[domain.AssetClassStocks])
	assert.Equal(t, 0.0, normalized[domain.AssetClassBonds])
	assert.Equal(t, 10.0, normalized[domain.AssetClassCash])
}

func TestNormalize_NilInput(t *testing.T) {
	normalized := Normalize(nil)

	assert.Len(t, normalized, 4)
	for _, class := range domain.AssetClasses() {
		assert.Equal(t, 0.0, normalized[class])
	}
}

func TestTotalOf(t *testing.T) {
	items := []domain.SubAllocationItem{
		{Ticker: "AAA", WeightPercent: 60},
		{Ticker: "BBB", WeightPercent: 40},
		{Ticker: "CCC", WeightPercent: -10}, // clamped, not subtracted
	}

	assert.Equal(t, 100.0, TotalOf(items))
	assert.Equal(t, 0.0, TotalOf(nil))
}

func TestSanitizeItems(t *testing.T) {
	items := SanitizeItems([]domain.SubAllocationItem{
		{Ticker: " VWCE ", Name: " FTSE All-World ", WeightPercent: math.NaN()},
	})

	assert.Equal(t, "VWCE", items[0].Ticker)
	assert.Equal(t, "FTSE All-World", items[0].Name)
	assert.Equal(t, 0.0, items[0].WeightPercent)
}

func TestRawItem_WeightKeyVariants(t *testing.T) {
	weightPercent := 25.0
	weight := 30.0

	// weight_percent preferred over weight
	item := RawItem{Ticker: "AAA", WeightPercent: &weightPercent, Weight: &weight}.Item()
	assert.Equal(t, 25.0, item.WeightPercent)

	// weight used as fallback
	item = RawItem{Ticker: "AAA", Weight: &weight}.Item()
	assert.Equal(t, 30.0, item.WeightPercent)

	// neither present defaults to zero
	item = RawItem{Ticker: "AAA"}.Item()
	assert.Equal(t, 0.0, item.WeightPercent)
}

func TestParseClassPercents(t *testing.T) {
	set, unknown := ParseClassPercents(map[string]float64{
		"stocks": 65,
		"Bonds":  25,
		"crypto": 5,
		"cash":   10,
	})

	assert.Equal(t, 65.0, set[domain.AssetClassStocks])
	assert.Equal(t, 25.0, set[domain.AssetClassBonds])
	assert.Equal(t, 0.0, set[domain.AssetClassAlternatives])
	assert.Equal(t, 10.0, set[domain.AssetClassCash])
	assert.Equal(t, []string{"crypto"}, unknown)
}
