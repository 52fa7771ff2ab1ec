// Package evaluation orchestrates full portfolio evaluation runs: it
// assembles the stored model and latest snapshot, classifies drift,
// simulates rebalancing orders and records the outcome in history.
package evaluation

import (
	"fmt"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/drift"
	"github.com/driftline/ballast/internal/modules/history"
	"github.com/driftline/ballast/internal/modules/rebalancing"
	"github.com/rs/zerolog"
)

// Result is the outcome of one evaluation run.
type Result struct {
	RunID           string                        `json:"run_id"`
	EvaluatedAt     time.Time                     `json:"evaluated_at"`
	TotalEvalAmount float64                       `json:"total_eval_amount"`
	Status          *drift.StatusReport           `json:"status"`
	Orders          *rebalancing.SimulationResult `json:"orders"`
	Recorded        bool                          `json:"recorded"`
}

// Service runs the evaluation pipeline end to end.
type Service struct {
	drift       *drift.Service
	rebalancing *rebalancing.Service
	history     *history.Service
	bus         *events.Bus
	log         zerolog.Logger
}

// NewService creates a new evaluation service
func NewService(
	driftSvc *drift.Service,
	rebalancingSvc *rebalancing.Service,
	historySvc *history.Service,
	bus *events.Bus,
	log zerolog.Logger,
) *Service {
	return &Service{
		drift:       driftSvc,
		rebalancing: rebalancingSvc,
		history:     historySvc,
		bus:         bus,
		log:         log.With().Str("service", "evaluation").Logger(),
	}
}

// Run executes one full evaluation: classify drift, simulate orders,
// record the run in history. Both the report and the orders come from
// the same assembled input, so they always agree. Runs before any
// snapshot has been ingested still compute a result but are not
// recorded.
func (s *Service) Run() (*Result, error) {
	started := time.Now()

	input, snap, err := s.drift.Assemble()
	if err != nil {
		return nil, fmt.Errorf("failed to assemble evaluation input: %w", err)
	}

	report := s.drift.Report(input, snap.TotalEvalAmount)
	orders := s.rebalancing.SimulateWith(input, snap.TotalEvalAmount)

	result := &Result{
		RunID:           orders.RunID,
		EvaluatedAt:     orders.SimulatedAt,
		TotalEvalAmount: snap.TotalEvalAmount,
		Status:          report,
		Orders:          orders,
	}

	if snap.ID == 0 {
		s.log.Debug().Str("run_id", result.RunID).Msg("No snapshot ingested yet; run not recorded")
		return result, nil
	}

	entry := s.cacheEntry(result)
	if err := s.history.RecordRun(entry); err != nil {
		return nil, fmt.Errorf("failed to record evaluation run: %w", err)
	}
	result.Recorded = true

	s.bus.Publish("evaluation", &events.EvaluationCompletedData{
		RunID:       entry.RunID,
		WorstStatus: entry.WorstStatus,
		WorstClass:  entry.WorstClass,
		OrderCount:  orders.OrderCount(),
	})

	s.log.Info().
		Str("run_id", result.RunID).
		Str("worst_status", entry.WorstStatus).
		Int("mp_orders", len(orders.MPOrders)).
		Int("sub_mp_orders", len(orders.SubMPOrders)).
		Dur("elapsed", time.Since(started)).
		Msg("Evaluation completed")

	return result, nil
}

func (s *Service) cacheEntry(result *Result) *history.CachedEvaluation {
	report := result.Status

	worstClass := ""
	if report.Worst != nil {
		worstClass = string(report.Worst.AssetClass)
	}

	records := make([]domain.DriftRecord, 0, len(report.Classes))
	for _, class := range report.Classes {
		records = append(records, class.Record)
	}

	return &history.CachedEvaluation{
		RunID:           result.RunID,
		EvaluatedAt:     result.EvaluatedAt,
		TotalEvalAmount: result.TotalEvalAmount,
		WorstClass:      worstClass,
		WorstStatus:     string(report.WorstStatus()),
		MPOrderCount:    len(result.Orders.MPOrders),
		SubMPOrderCount: len(result.Orders.SubMPOrders),
		Records:         records,
	}
}
