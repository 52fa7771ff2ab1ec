// Package di provides dependency injection for service implementations.
package di

import (
	"context"
	"fmt"

	"github.com/driftline/ballast/internal/config"
	"github.com/driftline/ballast/internal/database"
	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/evaluation"
	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/accounts"
	"github.com/driftline/ballast/internal/modules/allocation"
	"github.com/driftline/ballast/internal/modules/drift"
	"github.com/driftline/ballast/internal/modules/history"
	"github.com/driftline/ballast/internal/modules/presentation"
	"github.com/driftline/ballast/internal/modules/rebalancing"
	"github.com/driftline/ballast/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates all services and stores them in the container.
// This is the single source of truth for service creation; services are
// created in dependency order so every dependency already exists.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Event bus first: every service that announces state changes needs it
	container.Bus = events.NewBus(log)

	// Model portfolio
	container.AllocationService = allocation.NewService(container.AllocationRepo, container.Bus, log)

	// Optional bootstrap: seed the model portfolio from a YAML file when
	// the store is empty. A bad seed file is reported but never blocks
	// startup; the model stays settable through the API.
	if err := container.AllocationService.SeedIfEmpty(cfg.ModelSeedPath); err != nil {
		log.Warn().Err(err).Str("path", cfg.ModelSeedPath).Msg("Model portfolio seeding failed")
	}

	// Snapshot ingestion
	container.AccountsService = accounts.NewService(container.AccountsRepo, container.Bus, log)

	// Drift classification (thresholds come from settings at evaluation
	// time; the config values are the fallback defaults)
	container.DriftService = drift.NewService(
		container.AllocationService,
		container.AccountsService,
		container.SettingsRepo,
		domain.Thresholds{
			MPPercent:    cfg.MPThresholdPercent,
			SubMPPercent: cfg.SubMPThresholdPercent,
		},
		container.Bus,
		log,
	)

	// Trade simulation and presentation read from the drift service
	container.RebalancingService = rebalancing.NewService(container.DriftService, log)
	container.PresentationService = presentation.NewService(container.DriftService, log)

	// Drift history and the latest-run cache
	container.HistoryService = history.NewService(container.HistoryRepo, container.HistoryCache, log)

	// Evaluation orchestrator ties the pipeline together
	container.EvaluationService = evaluation.NewService(
		container.DriftService,
		container.RebalancingService,
		container.HistoryService,
		container.Bus,
		log,
	)

	// Remote backups (optional - only when configured). A misconfigured
	// store is reported and backups stay disabled; the engine itself is
	// unaffected.
	if cfg.Backup != nil && cfg.Backup.Enabled {
		store, err := reliability.NewObjectStore(context.Background(), reliability.ObjectStoreConfig{
			Endpoint:        cfg.Backup.Endpoint,
			Region:          cfg.Backup.Region,
			Bucket:          cfg.Backup.Bucket,
			AccessKeyID:     cfg.Backup.AccessKeyID,
			SecretAccessKey: cfg.Backup.SecretAccessKey,
		}, log)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize backup object store - backups disabled")
		} else {
			retain := resolveBackupRetain(container, cfg, log)
			container.BackupService = reliability.NewBackupService(
				store,
				[]*database.DB{container.ConfigDB, container.PortfolioDB, container.CacheDB},
				cfg.DataDir,
				retain,
				container.Bus,
				log,
			)
			log.Info().Int("retain", retain).Msg("Backup service initialized")
		}
	} else {
		log.Debug().Msg("Backups not configured - backup job disabled")
	}

	return nil
}

// resolveBackupRetain reads the archive retention count from settings,
// falling back to the environment-derived value.
func resolveBackupRetain(container *Container, cfg *config.Config, log zerolog.Logger) int {
	retain, err := container.SettingsRepo.GetFloat("backup_retain", float64(cfg.Backup.Retain))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read backup_retain from settings, using configured value")
		return cfg.Backup.Retain
	}
	return int(retain)
}
