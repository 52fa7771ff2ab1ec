package drift

import (
	"fmt"
	"sync"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/accounts"
	"github.com/driftline/ballast/internal/modules/allocation"
	"github.com/driftline/ballast/internal/modules/settings"
	"github.com/rs/zerolog"
)

// Service assembles drift reports from the stored model portfolio and the
// latest holdings snapshot
type Service struct {
	allocation *allocation.Service
	accounts   *accounts.Service
	settings   *settings.Repository
	defaults   domain.Thresholds
	bus        *events.Bus
	log        zerolog.Logger

	mu        sync.Mutex
	lastWorst domain.DriftStatus
}

// NewService creates a new drift service
func NewService(
	allocationSvc *allocation.Service,
	accountsSvc *accounts.Service,
	settingsRepo *settings.Repository,
	defaults domain.Thresholds,
	bus *events.Bus,
	log zerolog.Logger,
) *Service {
	return &Service{
		allocation: allocationSvc,
		accounts:   accountsSvc,
		settings:   settingsRepo,
		defaults:   defaults.Sanitize(),
		bus:        bus,
		log:        log.With().Str("service", "drift").Logger(),
	}
}

// Thresholds resolves the active thresholds. Settings override the
// configured defaults; unreadable or non-positive values fall back.
func (s *Service) Thresholds() domain.Thresholds {
	t := s.defaults

	if v, err := s.settings.GetFloat("mp_threshold_percent", s.defaults.MPPercent); err == nil {
		t.MPPercent = v
	} else {
		s.log.Warn().Err(err).Msg("Failed to read MP threshold setting")
	}

	if v, err := s.settings.GetFloat("sub_mp_threshold_percent", s.defaults.SubMPPercent); err == nil {
		t.SubMPPercent = v
	} else {
		s.log.Warn().Err(err).Msg("Failed to read Sub-MP threshold setting")
	}

	return t.Sanitize()
}

// Assemble builds the engine input from the stored model portfolio and
// the latest snapshot, returning the snapshot alongside for callers that
// need the evaluation amount.
func (s *Service) Assemble() (*domain.RebalancingStatus, *accounts.Snapshot, error) {
	model, err := s.allocation.GetModel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load model portfolio: %w", err)
	}

	snap, err := s.accounts.Latest()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	subs := make([]domain.SubAllocationBucket, 0, len(domain.AssetClasses()))
	for _, class := range domain.AssetClasses() {
		subs = append(subs, domain.SubAllocationBucket{
			AssetClass: class,
			Target:     model.Items[class],
			Actual:     snap.Items[class],
		})
	}

	input := &domain.RebalancingStatus{
		TargetAllocation: model.Targets,
		ActualAllocation: snap.Classes,
		SubAllocations:   subs,
		Thresholds:       s.Thresholds(),
	}
	return input, snap, nil
}

// Report classifies an already-assembled input and publishes a
// status-change event when the worst severity moves between tiers.
func (s *Service) Report(input *domain.RebalancingStatus, totalEvalAmount float64) *StatusReport {
	report, skipped := BuildReport(input, totalEvalAmount, time.Now().UTC())
	if skipped > 0 {
		s.log.Debug().Int("skipped_items", skipped).Msg("Dropped unmatchable sub-allocation items")
	}

	s.trackWorst(report.WorstStatus())
	return report
}

// Status computes the full drift report from the stored model and the
// latest snapshot.
func (s *Service) Status() (*StatusReport, error) {
	input, snap, err := s.Assemble()
	if err != nil {
		return nil, err
	}
	return s.Report(input, snap.TotalEvalAmount), nil
}

// Worst returns the MP-level record with the largest absolute drift.
func (s *Service) Worst() (*domain.DriftRecord, error) {
	report, err := s.Status()
	if err != nil {
		return nil, err
	}
	return report.Worst, nil
}

func (s *Service) trackWorst(current domain.DriftStatus) {
	s.mu.Lock()
	previous := s.lastWorst
	s.lastWorst = current
	s.mu.Unlock()

	if previous != "" && previous != current {
		s.log.Info().
			Str("previous", string(previous)).
			Str("current", string(current)).
			Msg("Worst drift status changed")
		s.bus.Publish("drift", &events.DriftStatusChangedData{
			Previous: string(previous),
			Current:  string(current),
		})
	}
}
