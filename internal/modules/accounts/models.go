// Package accounts manages portfolio snapshots: point-in-time records of
// the total evaluation amount, the per-class actual allocation and the
// per-class holdings reported by the broker connection.
package accounts

import (
	"time"

	"github.com/driftline/ballast/internal/domain"
)

// Snapshot is a stored portfolio snapshot.
type Snapshot struct {
	ID              int64                                            `json:"id"`
	TakenAt         time.Time                                        `json:"taken_at"`
	TotalEvalAmount float64                                          `json:"total_eval_amount"`
	Classes         domain.AllocationSet                             `json:"classes"`
	Items           map[domain.AssetClass][]domain.SubAllocationItem `json:"items"`
}

// EmptySnapshot returns a snapshot with zero evaluation and all-zero
// allocations. Used when no snapshot has been ingested yet so downstream
// consumers always see a complete class set.
func EmptySnapshot() *Snapshot {
	classes := make(domain.AllocationSet, len(domain.AssetClasses()))
	items := make(map[domain.AssetClass][]domain.SubAllocationItem, len(domain.AssetClasses()))
	for _, class := range domain.AssetClasses() {
		classes[class] = 0
		items[class] = []domain.SubAllocationItem{}
	}
	return &Snapshot{
		TakenAt:         time.Unix(0, 0).UTC(),
		TotalEvalAmount: 0,
		Classes:         classes,
		Items:           items,
	}
}
