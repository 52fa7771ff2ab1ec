package history

import (
	"fmt"
	"math"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/rs/zerolog"
)

// Service records evaluation runs and serves series, statistics and
// trends derived from them
type Service struct {
	repo  *Repository
	cache *Cache
	log   zerolog.Logger
}

// NewService creates a new history service
func NewService(repo *Repository, cache *Cache, log zerolog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log.With().Str("service", "history").Logger(),
	}
}

// RecordRun persists one evaluation run and refreshes the latest-run
// cache. A cache write failure is logged, not fatal; the history row is
// the durable record.
func (s *Service) RecordRun(eval *CachedEvaluation) error {
	if eval == nil {
		return fmt.Errorf("evaluation is required")
	}

	if err := s.repo.InsertRun(eval.RunID, eval.EvaluatedAt, eval.Records); err != nil {
		return fmt.Errorf("failed to record evaluation run: %w", err)
	}

	if err := s.cache.StoreLatest(eval); err != nil {
		s.log.Warn().Err(err).Str("run_id", eval.RunID).Msg("Failed to cache evaluation")
	}

	return nil
}

// LatestEvaluation returns the cached most recent evaluation, nil when
// nothing has run yet.
func (s *Service) LatestEvaluation() (*CachedEvaluation, error) {
	return s.cache.Latest()
}

// ClassSeries returns the drift series for one class over the trailing
// number of days.
func (s *Service) ClassSeries(class domain.AssetClass, days int) ([]Point, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	return s.repo.SeriesByClass(class, since)
}

// ClassStats summarizes the drift series for one class.
func (s *Service) ClassStats(class domain.AssetClass, days int) (SeriesStats, error) {
	points, err := s.ClassSeries(class, days)
	if err != nil {
		return SeriesStats{}, err
	}

	series := make([]float64, 0, len(points))
	for _, point := range points {
		series = append(series, point.DriftPercent)
	}
	return ComputeStats(series), nil
}

// ClassTrend reports whether the drift magnitude of one class is
// widening or narrowing. Nil when the class has no history.
func (s *Service) ClassTrend(class domain.AssetClass, days, period int) (*TrendReport, error) {
	points, err := s.ClassSeries(class, days)
	if err != nil {
		return nil, err
	}

	absSeries := make([]float64, 0, len(points))
	for _, point := range points {
		absSeries = append(absSeries, math.Abs(point.DriftPercent))
	}
	return ComputeTrend(absSeries, period), nil
}

// RecentRuns lists the newest evaluation runs.
func (s *Service) RecentRuns(limit int) ([]RunSummary, error) {
	return s.repo.RecentRuns(limit)
}

// Prune removes history older than the retention window.
func (s *Service) Prune(retainDays int) (int64, error) {
	if retainDays <= 0 {
		retainDays = 365
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retainDays)
	removed, err := s.repo.PruneBefore(cutoff)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Int("retain_days", retainDays).Msg("Pruned drift history")
	}
	return removed, nil
}
