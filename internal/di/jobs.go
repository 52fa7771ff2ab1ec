// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"

	"github.com/driftline/ballast/internal/config"
	"github.com/driftline/ballast/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the cron scheduler and registers all background
// jobs with their configured schedules. The scheduler is stored on the
// container but not started; cmd/server starts it once wiring is done.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	sched := scheduler.New(log)

	// Periodic drift evaluation. The schedule honors the settings
	// override applied to cfg during wiring.
	evaluationJob := scheduler.NewEvaluationJob(container.EvaluationService, log)
	if err := sched.AddJob(cfg.EvaluationSchedule, evaluationJob); err != nil {
		return fmt.Errorf("failed to register evaluation job: %w", err)
	}

	// History and snapshot pruning
	retentionJob := scheduler.NewRetentionJob(
		container.HistoryService,
		container.AccountsService,
		cfg.RetentionDays,
		log,
	)
	if err := sched.AddJob(cfg.RetentionSchedule, retentionJob); err != nil {
		return fmt.Errorf("failed to register retention job: %w", err)
	}

	// Remote backups, only when the service came up during wiring
	if container.BackupService != nil {
		backupJob := scheduler.NewBackupJob(container.BackupService, log)
		if err := sched.AddJob(cfg.Backup.Schedule, backupJob); err != nil {
			return fmt.Errorf("failed to register backup job: %w", err)
		}
	}

	container.Scheduler = sched

	return nil
}
