package presentation

import (
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/modules/drift"
	"github.com/rs/zerolog"
)

// ClassView is the drill-down of one asset class, both sides normalized.
type ClassView struct {
	AssetClass domain.AssetClass `json:"asset_class"`
	Label      string            `json:"label"`
	Target     []Segment         `json:"target"`
	Actual     []Segment         `json:"actual"`
}

// View is the complete renderable picture: the MP bar for both sides and
// one drill-down per asset class.
type View struct {
	GeneratedAt     time.Time   `json:"generated_at"`
	TotalEvalAmount float64     `json:"total_eval_amount"`
	MPTarget        []Segment   `json:"mp_target"`
	MPActual        []Segment   `json:"mp_actual"`
	Classes         []ClassView `json:"classes"`
}

// Service builds segment views from the assembled portfolio state
type Service struct {
	drift *drift.Service
	log   zerolog.Logger
}

// NewService creates a new presentation service
func NewService(driftSvc *drift.Service, log zerolog.Logger) *Service {
	return &Service{
		drift: driftSvc,
		log:   log.With().Str("service", "presentation").Logger(),
	}
}

// View assembles the current state and renders every bar.
func (s *Service) View() (*View, error) {
	input, snap, err := s.drift.Assemble()
	if err != nil {
		return nil, err
	}
	return BuildView(input, snap.TotalEvalAmount, time.Now().UTC()), nil
}

// BuildView renders all segment collections for an assembled input.
// Segment amounts on each side derive from that side's own class weight.
func BuildView(input *domain.RebalancingStatus, totalEvalAmount float64, at time.Time) *View {
	buckets := make(map[domain.AssetClass]domain.SubAllocationBucket, len(input.SubAllocations))
	for _, bucket := range input.SubAllocations {
		buckets[bucket.AssetClass] = bucket
	}

	classes := make([]ClassView, 0, len(domain.AssetClasses()))
	for _, class := range domain.AssetClasses() {
		bucket := buckets[class]

		targetBasis := amountFor(totalEvalAmount, input.TargetAllocation.Get(class))
		actualBasis := amountFor(totalEvalAmount, input.ActualAllocation.Get(class))

		actualItems := bucket.Actual
		if class == domain.AssetClassCash {
			actualItems = CashActualItems(actualItems, input.ActualAllocation)
		}

		classes = append(classes, ClassView{
			AssetClass: class,
			Label:      ClassLabel(class),
			Target:     Normalize(FromItems(bucket.Target, targetBasis)),
			Actual:     Normalize(FromItems(actualItems, actualBasis)),
		})
	}

	return &View{
		GeneratedAt:     at,
		TotalEvalAmount: totalEvalAmount,
		MPTarget:        Normalize(FromAllocationSet(input.TargetAllocation, totalEvalAmount)),
		MPActual:        Normalize(FromAllocationSet(input.ActualAllocation, totalEvalAmount)),
		Classes:         classes,
	}
}
