package scheduler

import (
	"fmt"

	"github.com/driftline/ballast/internal/modules/accounts"
	"github.com/driftline/ballast/internal/modules/history"
	"github.com/rs/zerolog"
)

// RetentionJob prunes drift history and snapshots past the retention
// window.
type RetentionJob struct {
	history    *history.Service
	accounts   *accounts.Service
	retainDays int
	log        zerolog.Logger
}

// NewRetentionJob creates a new retention job
func NewRetentionJob(historySvc *history.Service, accountsSvc *accounts.Service, retainDays int, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		history:    historySvc,
		accounts:   accountsSvc,
		retainDays: retainDays,
		log:        log.With().Str("job", "retention").Logger(),
	}
}

// Name returns the job name
func (j *RetentionJob) Name() string {
	return "retention"
}

// Run removes expired history rows and snapshots
func (j *RetentionJob) Run() error {
	historyRemoved, err := j.history.Prune(j.retainDays)
	if err != nil {
		return fmt.Errorf("failed to prune drift history: %w", err)
	}

	snapshotsRemoved, err := j.accounts.Prune(j.retainDays)
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	if historyRemoved > 0 || snapshotsRemoved > 0 {
		j.log.Info().
			Int64("history_rows", historyRemoved).
			Int64("snapshots", snapshotsRemoved).
			Msg("Retention pruning completed")
	}
	return nil
}
