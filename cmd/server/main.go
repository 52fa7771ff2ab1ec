// Package main is the entry point for the Ballast portfolio drift engine.
//
// Ballast watches a model portfolio against ingested account snapshots,
// classifies allocation drift at two levels, simulates the trades that
// would correct it, and records every evaluation. Dependency wiring is
// handled by di.Wire(); this file only sequences startup and shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/driftline/ballast/internal/config"
	"github.com/driftline/ballast/internal/di"
	"github.com/driftline/ballast/internal/server"
	"github.com/driftline/ballast/pkg/logger"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Ballast")

	// Wire all dependencies: databases, repositories, services,
	// handlers and scheduled jobs
	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	// All databases must be closed on exit so WAL checkpoints are written
	defer container.ConfigDB.Close()
	defer container.PortfolioDB.Close()
	defer container.CacheDB.Close()

	// Start the cron scheduler (evaluation, retention, backups)
	container.Scheduler.Start()
	defer container.Scheduler.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Log:          log,
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
		ConfigDB:     container.ConfigDB,
		PortfolioDB:  container.PortfolioDB,
		CacheDB:      container.CacheDB,
		Bus:          container.Bus,
		DriftService: container.DriftService,
		Allocation:   container.AllocationHandlers,
		Accounts:     container.AccountsHandlers,
		Drift:        container.DriftHandlers,
		Rebalancing:  container.RebalancingHandlers,
		Presentation: container.PresentationHandlers,
		History:      container.HistoryHandlers,
		Evaluation:   container.EvaluationHandlers,
		Settings:     container.SettingsHandlers,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with a bounded wait for in-flight requests
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
