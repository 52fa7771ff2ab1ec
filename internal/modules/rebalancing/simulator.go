// Package rebalancing simulates the buy and sell orders that would close
// the drift between the model portfolio and the actual holdings. Orders
// are derived at two independent levels, asset classes (MP) and
// instruments within a class (Sub-MP), and the two lists are never
// merged.
package rebalancing

import (
	"math"

	"github.com/driftline/ballast/internal/domain"
)

// SimulateMP derives asset-class level orders. Classes whose absolute
// drift stays below the threshold produce no order; closing small drift
// would mean micro-trading.
func SimulateMP(target, actual domain.AllocationSet, totalEvalAmount, mpThreshold float64) []domain.TradeOrder {
	if totalEvalAmount <= 0 {
		return []domain.TradeOrder{}
	}

	orders := make([]domain.TradeOrder, 0, len(domain.AssetClasses()))
	for _, class := range domain.AssetClasses() {
		targetPct := target.Get(class)
		actualPct := actual.Get(class)

		diffAmount := totalEvalAmount * (targetPct - actualPct) / 100
		diffPercent := targetPct - actualPct

		if math.Abs(diffPercent) < mpThreshold {
			continue
		}

		action := domain.TradeActionBuy
		if diffAmount <= 0 {
			action = domain.TradeActionSell
		}

		orders = append(orders, domain.TradeOrder{
			Level:      domain.TradeLevelMP,
			AssetClass: class,
			Action:     action,
			Amount:     math.Abs(diffAmount),
			Percent:    math.Abs(diffPercent),
		})
	}

	return orders
}

// subEntry is one side of an instrument match, in percent of the class
// and converted currency amount.
type subEntry struct {
	item    domain.SubAllocationItem
	percent float64
	amount  float64
}

// SimulateSubMP derives instrument-level orders for one asset class
// bucket. The class's actual weight converts instrument percentages to
// currency; the target weight is the fallback when the class is entirely
// unheld, so entering a new class still produces sized orders. Returns
// the orders and the number of unmatchable items dropped.
func SimulateSubMP(
	bucket domain.SubAllocationBucket,
	classTargetPct, classActualPct float64,
	totalEvalAmount, subMpThreshold float64,
) ([]domain.TradeOrder, int) {
	if totalEvalAmount <= 0 {
		return []domain.TradeOrder{}, 0
	}

	basisPct := classActualPct
	if basisPct <= 0 {
		basisPct = classTargetPct
	}
	classTotalAmount := totalEvalAmount * basisPct / 100

	targetItems := bucket.Target
	targetMap, targetKeys, skippedTarget := domain.IndexItems(targetItems)

	// Cash with no explicit target items is treated as a single synthetic
	// cash instrument at 100%.
	if bucket.AssetClass == domain.AssetClassCash && len(targetMap) == 0 {
		synthetic := domain.SubAllocationItem{Ticker: "CASH", Name: "Cash", WeightPercent: 100}
		targetMap = map[string]domain.SubAllocationItem{synthetic.Key(): synthetic}
		targetKeys = []string{synthetic.Key()}
	}

	actualMap, actualKeys, skippedActual := domain.IndexItems(bucket.Actual)

	targets := make(map[string]subEntry, len(targetMap))
	for key, item := range targetMap {
		targets[key] = subEntry{
			item:    item,
			percent: item.WeightPercent,
			amount:  classTotalAmount * item.WeightPercent / 100,
		}
	}

	actuals := make(map[string]subEntry, len(actualMap))
	for key, item := range actualMap {
		actuals[key] = subEntry{
			item:    item,
			percent: item.WeightPercent,
			amount:  classTotalAmount * item.WeightPercent / 100,
		}
	}

	orders := make([]domain.TradeOrder, 0, len(targetKeys)+len(actualKeys))

	for _, key := range targetKeys {
		targetEntry := targets[key]
		actualEntry := actuals[key]

		diffAmount := targetEntry.amount - actualEntry.amount
		diffPercent := targetEntry.percent - actualEntry.percent

		if math.Abs(diffPercent) < subMpThreshold {
			continue
		}

		action := domain.TradeActionBuy
		if diffAmount <= 0 {
			action = domain.TradeActionSell
		}

		orders = append(orders, domain.TradeOrder{
			Level:      domain.TradeLevelSubMP,
			AssetClass: bucket.AssetClass,
			Ticker:     targetEntry.item.Ticker,
			Name:       targetEntry.item.Name,
			Action:     action,
			Amount:     math.Abs(diffAmount),
			Percent:    math.Abs(diffPercent),
		})
	}

	// Instruments held but absent from the target are an unconditional
	// exit: a full sell regardless of threshold.
	for _, key := range actualKeys {
		if _, inTarget := targetMap[key]; inTarget {
			continue
		}
		actualEntry := actuals[key]
		if actualEntry.amount <= 0 {
			continue
		}

		orders = append(orders, domain.TradeOrder{
			Level:      domain.TradeLevelSubMP,
			AssetClass: bucket.AssetClass,
			Ticker:     actualEntry.item.Ticker,
			Name:       actualEntry.item.Name,
			Action:     domain.TradeActionSell,
			Amount:     actualEntry.amount,
			Percent:    actualEntry.percent,
		})
	}

	return orders, skippedTarget + skippedActual
}

// Simulate runs both levels over an assembled input and returns the two
// order lists, plus the number of unmatchable items dropped.
func Simulate(input *domain.RebalancingStatus, totalEvalAmount float64) ([]domain.TradeOrder, []domain.TradeOrder, int) {
	thresholds := input.Thresholds.Sanitize()

	mpOrders := SimulateMP(input.TargetAllocation, input.ActualAllocation, totalEvalAmount, thresholds.MPPercent)

	buckets := make(map[domain.AssetClass]domain.SubAllocationBucket, len(input.SubAllocations))
	for _, bucket := range input.SubAllocations {
		buckets[bucket.AssetClass] = bucket
	}

	subOrders := make([]domain.TradeOrder, 0)
	skipped := 0
	for _, class := range domain.AssetClasses() {
		bucket, ok := buckets[class]
		if !ok {
			bucket = domain.SubAllocationBucket{AssetClass: class}
		}
		classOrders, n := SimulateSubMP(
			bucket,
			input.TargetAllocation.Get(class),
			input.ActualAllocation.Get(class),
			totalEvalAmount,
			thresholds.SubMPPercent,
		)
		skipped += n
		subOrders = append(subOrders, classOrders...)
	}

	return mpOrders, subOrders, skipped
}
