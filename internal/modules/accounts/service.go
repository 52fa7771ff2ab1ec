package accounts

import (
	"fmt"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/allocation"
	"github.com/rs/zerolog"
)

// RawSnapshot is an unvalidated snapshot as delivered by a broker export.
// Unknown asset classes are skipped, weights are clamped and missing
// classes default to zero during ingestion.
type RawSnapshot struct {
	TakenAt         *time.Time                      `json:"taken_at,omitempty"`
	TotalEvalAmount float64                         `json:"total_eval_amount"`
	Classes         map[string]float64              `json:"classes"`
	Items           map[string][]allocation.RawItem `json:"items"`
}

// Service provides snapshot ingestion and retrieval
type Service struct {
	repo *Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewService creates a new accounts service
func NewService(repo *Repository, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("service", "accounts").Logger(),
	}
}

// Ingest normalizes and persists a raw snapshot, returning the stored record.
func (s *Service) Ingest(raw *RawSnapshot) (*Snapshot, error) {
	if raw == nil {
		return nil, fmt.Errorf("snapshot is required")
	}

	takenAt := time.Now().UTC()
	if raw.TakenAt != nil && !raw.TakenAt.IsZero() {
		takenAt = raw.TakenAt.UTC()
	}

	classes, unknown := allocation.ParseClassPercents(raw.Classes)
	for _, rawClass := range unknown {
		s.log.Warn().Str("asset_class", rawClass).Msg("Skipping unknown asset class in snapshot")
	}

	items := make(map[domain.AssetClass][]domain.SubAllocationItem, len(domain.AssetClasses()))
	for rawClass, rawItems := range raw.Items {
		class, ok := domain.ParseAssetClass(rawClass)
		if !ok {
			s.log.Warn().Str("asset_class", rawClass).Msg("Skipping unknown asset class in snapshot items")
			continue
		}
		items[class] = allocation.ParseItems(rawItems)
	}
	for _, class := range domain.AssetClasses() {
		if items[class] == nil {
			items[class] = []domain.SubAllocationItem{}
		}
	}

	totalEval := raw.TotalEvalAmount
	if totalEval < 0 {
		s.log.Warn().Float64("total_eval_amount", totalEval).Msg("Negative evaluation amount clamped to zero")
		totalEval = 0
	}

	snap := &Snapshot{
		TakenAt:         takenAt,
		TotalEvalAmount: totalEval,
		Classes:         classes,
		Items:           items,
	}

	id, err := s.repo.Save(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	snap.ID = id

	s.log.Info().
		Int64("snapshot_id", id).
		Float64("total_eval_amount", snap.TotalEvalAmount).
		Msg("Snapshot ingested")

	s.bus.Publish("accounts", &events.SnapshotIngestedData{
		SnapshotID:      id,
		TotalEvalAmount: snap.TotalEvalAmount,
	})

	return snap, nil
}

// Latest returns the most recent snapshot, or an empty snapshot when the
// store holds none.
func (s *Service) Latest() (*Snapshot, error) {
	snap, err := s.repo.GetLatest()
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if snap == nil {
		return EmptySnapshot(), nil
	}
	return snap, nil
}

// HasSnapshot reports whether at least one snapshot has been ingested.
func (s *Service) HasSnapshot() (bool, error) {
	count, err := s.repo.Count()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Prune removes snapshots older than the retention window. The latest
// snapshot is always kept, regardless of age.
func (s *Service) Prune(retainDays int) (int64, error) {
	if retainDays <= 0 {
		retainDays = 365
	}

	latest, err := s.repo.GetLatest()
	if err != nil {
		return 0, fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if latest == nil {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -retainDays)
	removed, err := s.repo.PruneBefore(cutoff, latest.ID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Int("retain_days", retainDays).Msg("Pruned old snapshots")
	}
	return removed, nil
}
