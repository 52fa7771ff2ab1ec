package history

import (
	"math"
	"sort"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// SeriesStats summarizes one class's drift series.
type SeriesStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Median float64 `json:"median"`
	Latest float64 `json:"latest"`
}

// ComputeStats summarizes a drift series. Returns zeroes for an empty
// series rather than NaNs.
func ComputeStats(series []float64) SeriesStats {
	if len(series) == 0 {
		return SeriesStats{}
	}

	stats := SeriesStats{
		Count:  len(series),
		Mean:   stat.Mean(series, nil),
		Min:    series[0],
		Max:    series[0],
		Latest: series[len(series)-1],
	}

	if len(series) > 1 {
		stats.StdDev = stat.StdDev(series, nil)
	}

	for _, v := range series {
		stats.Min = math.Min(stats.Min, v)
		stats.Max = math.Max(stats.Max, v)
	}

	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)
	stats.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return stats
}

// TrendDirection describes whether drift magnitude is growing.
type TrendDirection string

const (
	TrendWidening  TrendDirection = "WIDENING"
	TrendNarrowing TrendDirection = "NARROWING"
	TrendStable    TrendDirection = "STABLE"
)

// stableBand is the EMA distance below which the trend counts as flat,
// in percentage points.
const stableBand = 0.1

// EMA returns the exponential moving average of the series's last value.
// Falls back to the plain mean when the series is shorter than the
// period, nil when the series is empty.
func EMA(series []float64, period int) *float64 {
	if len(series) == 0 {
		return nil
	}

	if len(series) < period {
		mean := stat.Mean(series, nil)
		return &mean
	}

	ema := talib.Ema(series, period)
	if len(ema) > 0 && !math.IsNaN(ema[len(ema)-1]) {
		result := ema[len(ema)-1]
		return &result
	}

	mean := stat.Mean(series[len(series)-period:], nil)
	return &mean
}

// TrendReport compares the latest drift magnitude to its moving average.
type TrendReport struct {
	Period    int            `json:"period"`
	EMA       float64        `json:"ema"`
	Latest    float64        `json:"latest"`
	Direction TrendDirection `json:"direction"`
}

// ComputeTrend derives a trend report from a series of absolute drift
// values. Returns nil when the series is empty.
func ComputeTrend(absSeries []float64, period int) *TrendReport {
	if period <= 0 {
		period = 10
	}

	ema := EMA(absSeries, period)
	if ema == nil {
		return nil
	}

	latest := absSeries[len(absSeries)-1]
	direction := TrendStable
	switch {
	case latest > *ema+stableBand:
		direction = TrendWidening
	case latest < *ema-stableBand:
		direction = TrendNarrowing
	}

	return &TrendReport{
		Period:    period,
		EMA:       *ema,
		Latest:    latest,
		Direction: direction,
	}
}
