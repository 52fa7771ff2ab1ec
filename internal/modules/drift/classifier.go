// Package drift measures how far the actual portfolio has moved from the
// model portfolio and buckets each measurement into a severity tier.
package drift

import (
	"math"
	"time"

	"github.com/driftline/ballast/internal/domain"
)

// Classify computes the signed drift (actual minus target, in percentage
// points) and its severity bucket.
func Classify(targetPercent, actualPercent, threshold float64) (float64, domain.DriftStatus) {
	driftPercent := actualPercent - targetPercent
	return driftPercent, StatusFor(driftPercent, threshold)
}

// StatusFor buckets a signed drift value against a threshold. The yellow
// band starts at 80% of the threshold so approaching drift is surfaced
// before it becomes actionable.
func StatusFor(driftPercent, threshold float64) domain.DriftStatus {
	abs := math.Abs(driftPercent)
	switch {
	case abs >= threshold:
		return domain.DriftStatusRed
	case abs > 0.8*threshold:
		return domain.DriftStatusYellow
	default:
		return domain.DriftStatusGreen
	}
}

// ClassRecords computes the MP-level drift record for every asset class,
// in the fixed class order. Missing classes on either side count as 0.
func ClassRecords(target, actual domain.AllocationSet, threshold float64) []domain.DriftRecord {
	records := make([]domain.DriftRecord, 0, len(domain.AssetClasses()))
	for _, class := range domain.AssetClasses() {
		targetPct := target.Get(class)
		actualPct := actual.Get(class)
		driftPct, status := Classify(targetPct, actualPct, threshold)
		records = append(records, domain.DriftRecord{
			AssetClass:    class,
			TargetPercent: targetPct,
			ActualPercent: actualPct,
			DriftPercent:  driftPct,
			Status:        status,
		})
	}
	return records
}

// ItemRecords computes Sub-MP drift records for one asset class bucket.
// Items are matched across sides by ticker, falling back to name; items
// carrying neither are dropped and reported in skipped. A key present on
// only one side defaults the other side to 0. Items at 0 on both sides
// are not reported.
func ItemRecords(class domain.AssetClass, target, actual []domain.SubAllocationItem, threshold float64) ([]domain.DriftRecord, int) {
	targetMap, targetKeys, skippedTarget := domain.IndexItems(target)
	actualMap, actualKeys, skippedActual := domain.IndexItems(actual)

	keys := make([]string, 0, len(targetKeys)+len(actualKeys))
	keys = append(keys, targetKeys...)
	for _, key := range actualKeys {
		if _, inTarget := targetMap[key]; !inTarget {
			keys = append(keys, key)
		}
	}

	records := make([]domain.DriftRecord, 0, len(keys))
	for _, key := range keys {
		targetItem := targetMap[key]
		actualItem := actualMap[key]
		if targetItem.WeightPercent == 0 && actualItem.WeightPercent == 0 {
			continue
		}

		name := targetItem.Name
		if name == "" {
			name = actualItem.Name
		}

		driftPct, status := Classify(targetItem.WeightPercent, actualItem.WeightPercent, threshold)
		records = append(records, domain.DriftRecord{
			AssetClass:    class,
			Key:           key,
			Name:          name,
			TargetPercent: targetItem.WeightPercent,
			ActualPercent: actualItem.WeightPercent,
			DriftPercent:  driftPct,
			Status:        status,
		})
	}

	return records, skippedTarget + skippedActual
}

// WorstOf returns the record with the largest absolute drift. Ties keep
// the earliest record, which for MP records means asset class order.
// Returns nil for an empty slice.
func WorstOf(records []domain.DriftRecord) *domain.DriftRecord {
	var worst *domain.DriftRecord
	for i := range records {
		if worst == nil || math.Abs(records[i].DriftPercent) > math.Abs(worst.DriftPercent) {
			worst = &records[i]
		}
	}
	if worst == nil {
		return nil
	}
	copied := *worst
	return &copied
}

// ClassReport pairs the MP-level record of one asset class with the
// Sub-MP records of its drill-down.
type ClassReport struct {
	AssetClass domain.AssetClass    `json:"asset_class"`
	Record     domain.DriftRecord   `json:"record"`
	Items      []domain.DriftRecord `json:"items"`
}

// StatusReport is the full drift picture at one point in time.
type StatusReport struct {
	EvaluatedAt     time.Time           `json:"evaluated_at"`
	TotalEvalAmount float64             `json:"total_eval_amount"`
	Thresholds      domain.Thresholds   `json:"thresholds"`
	Classes         []ClassReport       `json:"classes"`
	Worst           *domain.DriftRecord `json:"worst,omitempty"`
}

// WorstStatus returns the severity of the worst MP record, Green when no
// records exist.
func (r *StatusReport) WorstStatus() domain.DriftStatus {
	if r.Worst == nil {
		return domain.DriftStatusGreen
	}
	return r.Worst.Status
}

// BuildReport computes the full drift report for an assembled input.
// Returns the report and the number of unmatchable Sub-MP items dropped.
func BuildReport(input *domain.RebalancingStatus, totalEvalAmount float64, at time.Time) (*StatusReport, int) {
	thresholds := input.Thresholds.Sanitize()
	mp := ClassRecords(input.TargetAllocation, input.ActualAllocation, thresholds.MPPercent)

	buckets := make(map[domain.AssetClass]domain.SubAllocationBucket, len(input.SubAllocations))
	for _, bucket := range input.SubAllocations {
		buckets[bucket.AssetClass] = bucket
	}

	classes := make([]ClassReport, 0, len(mp))
	skipped := 0
	for i, class := range domain.AssetClasses() {
		bucket := buckets[class]
		items, n := ItemRecords(class, bucket.Target, bucket.Actual, thresholds.SubMPPercent)
		skipped += n
		classes = append(classes, ClassReport{
			AssetClass: class,
			Record:     mp[i],
			Items:      items,
		})
	}

	return &StatusReport{
		EvaluatedAt:     at,
		TotalEvalAmount: totalEvalAmount,
		Thresholds:      thresholds,
		Classes:         classes,
		Worst:           WorstOf(mp),
	}, skipped
}
