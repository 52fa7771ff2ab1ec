package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetClasses_FixedOrder(t *testing.T) {
	classes := AssetClasses()

	assert.Equal(t, []AssetClass{
		AssetClassStocks,
		AssetClassBonds,
		AssetClassAlternatives,
		AssetClassCash,
	}, classes)

	for i, class := range classes {
		assert.Equal(t, i, class.Ordinal())
	}
	assert.Equal(t, len(classes), AssetClass("COMMODITIES").Ordinal())
}

func TestParseAssetClass(t *testing.T) {
	testCases := []struct {
		input    string
		expected AssetClass
		ok       bool
	}{
		{"STOCKS", AssetClassStocks, true},
		{"stocks", AssetClassStocks, true},
		{" Equity ", AssetClassStocks, true},
		{"bond", AssetClassBonds, true},
		{"alts", AssetClassAlternatives, true},
		{"Cash", AssetClassCash, true},
		{"crypto", "", false},
		{"", "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			class, ok := ParseAssetClass(tc.input)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, class)
		})
	}
}

func TestAllocationSet_Get(t *testing.T) {
	var nilSet AllocationSet
	assert.Equal(t, 0.0, nilSet.Get(AssetClassStocks))

	set := AllocationSet{AssetClassStocks: 60}
	assert.Equal(t, 60.0, set.Get(AssetClassStocks))
	assert.Equal(t, 0.0, set.Get(AssetClassBonds))
}

func TestSubAllocationItem_Key(t *testing.T) {
	assert.Equal(t, "VWCE", SubAllocationItem{Ticker: "VWCE", Name: "FTSE All-World"}.Key())
	assert.Equal(t, "FTSE All-World", SubAllocationItem{Name: "FTSE All-World"}.Key())
	assert.Equal(t, "", SubAllocationItem{}.Key())
}

func TestThresholds_Sanitize(t *testing.T) {
	sanitized := Thresholds{MPPercent: -1, SubMPPercent: 0}.Sanitize()
	assert.Equal(t, DefaultThresholds(), sanitized)

	custom := Thresholds{MPPercent: 2, SubMPPercent: 1}.Sanitize()
	assert.Equal(t, 2.0, custom.MPPercent)
	assert.Equal(t, 1.0, custom.SubMPPercent)
}

func TestDriftStatus_Severity(t *testing.T) {
	assert.Greater(t, DriftStatusRed.Severity(), DriftStatusYellow.Severity())
	assert.Greater(t, DriftStatusYellow.Severity(), DriftStatusGreen.Severity())
}
