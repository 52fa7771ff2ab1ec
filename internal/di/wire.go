// Package di provides dependency injection wiring and initialization.
package di

import (
	"fmt"

	"github.com/driftline/ballast/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// This is the main entry point for dependency injection.
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories
// 3. Overlay configuration from the settings database
// 4. Initialize services
// 5. Initialize handlers
// 6. Register jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	// Step 1: Initialize databases
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	// Step 2: Initialize repositories
	if err := InitializeRepositories(container, log); err != nil {
		container.ConfigDB.Close()
		container.PortfolioDB.Close()
		container.CacheDB.Close()
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	// Step 3: Stored settings override the environment. This must land
	// before services and jobs read thresholds or schedules from cfg.
	if err := cfg.UpdateFromSettings(container.SettingsRepo); err != nil {
		log.Warn().Err(err).Msg("Failed to update config from settings DB, using environment values")
	}

	// Step 4: Initialize services
	if err := InitializeServices(container, cfg, log); err != nil {
		container.ConfigDB.Close()
		container.PortfolioDB.Close()
		container.CacheDB.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Step 5: Initialize handlers
	InitializeHandlers(container, log)

	// Step 6: Register jobs with the scheduler
	if err := RegisterJobs(container, cfg, log); err != nil {
		container.ConfigDB.Close()
		container.PortfolioDB.Close()
		container.CacheDB.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")

	return container, nil
}
