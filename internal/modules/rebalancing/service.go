package rebalancing

import (
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/modules/drift"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service runs trade simulations over the stored model and snapshot
type Service struct {
	drift *drift.Service
	log   zerolog.Logger
}

// NewService creates a new rebalancing service
func NewService(driftSvc *drift.Service, log zerolog.Logger) *Service {
	return &Service{
		drift: driftSvc,
		log:   log.With().Str("service", "rebalancing").Logger(),
	}
}

// Thresholds resolves the active thresholds for what-if requests that do
// not carry their own.
func (s *Service) Thresholds() domain.Thresholds {
	return s.drift.Thresholds()
}

// Simulate assembles the current state and derives the orders that would
// close its drift.
func (s *Service) Simulate() (*SimulationResult, error) {
	input, snap, err := s.drift.Assemble()
	if err != nil {
		return nil, err
	}
	return s.SimulateWith(input, snap.TotalEvalAmount), nil
}

// SimulateWith derives orders for an explicit input, bypassing stored
// state. Used for what-if requests.
func (s *Service) SimulateWith(input *domain.RebalancingStatus, totalEvalAmount float64) *SimulationResult {
	mpOrders, subOrders, skipped := Simulate(input, totalEvalAmount)

	result := &SimulationResult{
		RunID:           uuid.New().String(),
		SimulatedAt:     time.Now().UTC(),
		TotalEvalAmount: totalEvalAmount,
		Thresholds:      input.Thresholds.Sanitize(),
		MPOrders:        mpOrders,
		SubMPOrders:     subOrders,
	}

	s.log.Debug().
		Str("run_id", result.RunID).
		Int("mp_orders", len(result.MPOrders)).
		Int("sub_mp_orders", len(result.SubMPOrders)).
		Int("skipped_items", skipped).
		Msg("Simulation completed")

	return result
}
