// Package di provides dependency injection type definitions.
//
// The Container is the single source of truth for all long-lived
// application components. It is assembled once by Wire() at startup:
// databases first, then repositories, then services, then HTTP
// handlers and scheduled jobs.
package di

import (
	"github.com/driftline/ballast/internal/database"
	"github.com/driftline/ballast/internal/evaluation"
	evaluationhandlers "github.com/driftline/ballast/internal/evaluation/handlers"
	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/accounts"
	accountshandlers "github.com/driftline/ballast/internal/modules/accounts/handlers"
	"github.com/driftline/ballast/internal/modules/allocation"
	allocationhandlers "github.com/driftline/ballast/internal/modules/allocation/handlers"
	"github.com/driftline/ballast/internal/modules/drift"
	drifthandlers "github.com/driftline/ballast/internal/modules/drift/handlers"
	"github.com/driftline/ballast/internal/modules/history"
	historyhandlers "github.com/driftline/ballast/internal/modules/history/handlers"
	"github.com/driftline/ballast/internal/modules/presentation"
	presentationhandlers "github.com/driftline/ballast/internal/modules/presentation/handlers"
	"github.com/driftline/ballast/internal/modules/rebalancing"
	rebalancinghandlers "github.com/driftline/ballast/internal/modules/rebalancing/handlers"
	"github.com/driftline/ballast/internal/modules/settings"
	settingshandlers "github.com/driftline/ballast/internal/modules/settings/handlers"
	"github.com/driftline/ballast/internal/reliability"
	"github.com/driftline/ballast/internal/scheduler"
)

// Container holds all dependencies for the application.
//
// Created by Wire() and handed to cmd/server, which mounts the handlers
// on the HTTP server and starts the scheduler. Everything is injected
// via constructors; nothing here reaches for globals.
type Container struct {
	// Databases (3-database architecture)
	// Each database uses SQLite with WAL mode and profile-specific PRAGMAs
	ConfigDB    *database.DB // Settings and the model portfolio
	PortfolioDB *database.DB // Ingested snapshots and the drift history ledger
	CacheDB     *database.DB // Ephemeral evaluation cache, safe to lose

	// Events - in-process pub/sub connecting services to the SSE and
	// WebSocket surfaces
	Bus *events.Bus

	// Repositories - data access layer
	SettingsRepo   *settings.Repository   // Key/value configuration
	AllocationRepo *allocation.Repository // Model portfolio targets and items
	AccountsRepo   *accounts.Repository   // Portfolio snapshots
	HistoryRepo    *history.Repository    // Drift run time series
	HistoryCache   *history.Cache         // msgpack latest-run cache

	// Services - business logic layer
	AllocationService   *allocation.Service
	AccountsService     *accounts.Service
	DriftService        *drift.Service
	RebalancingService  *rebalancing.Service
	PresentationService *presentation.Service
	HistoryService      *history.Service
	EvaluationService   *evaluation.Service
	BackupService       *reliability.BackupService // nil when backups are disabled

	// Handlers - HTTP endpoints mounted under /api by the server
	AllocationHandlers   *allocationhandlers.Handler
	AccountsHandlers     *accountshandlers.Handler
	DriftHandlers        *drifthandlers.Handler
	RebalancingHandlers  *rebalancinghandlers.Handler
	PresentationHandlers *presentationhandlers.Handler
	HistoryHandlers      *historyhandlers.Handler
	EvaluationHandlers   *evaluationhandlers.Handler
	SettingsHandlers     *settingshandlers.Handler

	// Scheduler - cron runner with the evaluation, retention and backup
	// jobs already registered; started by cmd/server
	Scheduler *scheduler.Scheduler
}
