// Package di provides dependency injection for HTTP handlers.
package di

import (
	evaluationhandlers "github.com/driftline/ballast/internal/evaluation/handlers"
	accountshandlers "github.com/driftline/ballast/internal/modules/accounts/handlers"
	allocationhandlers "github.com/driftline/ballast/internal/modules/allocation/handlers"
	drifthandlers "github.com/driftline/ballast/internal/modules/drift/handlers"
	historyhandlers "github.com/driftline/ballast/internal/modules/history/handlers"
	presentationhandlers "github.com/driftline/ballast/internal/modules/presentation/handlers"
	rebalancinghandlers "github.com/driftline/ballast/internal/modules/rebalancing/handlers"
	settingshandlers "github.com/driftline/ballast/internal/modules/settings/handlers"
	"github.com/rs/zerolog"
)

// InitializeHandlers creates the HTTP handlers for every module. Handler
// constructors cannot fail; this runs after services are wired.
func InitializeHandlers(container *Container, log zerolog.Logger) {
	container.AllocationHandlers = allocationhandlers.NewHandler(container.AllocationService, log)
	container.AccountsHandlers = accountshandlers.NewHandler(container.AccountsService, log)
	container.DriftHandlers = drifthandlers.NewHandler(container.DriftService, log)
	container.RebalancingHandlers = rebalancinghandlers.NewHandler(container.RebalancingService, log)
	container.PresentationHandlers = presentationhandlers.NewHandler(container.PresentationService, log)
	container.HistoryHandlers = historyhandlers.NewHandler(container.HistoryService, log)
	container.EvaluationHandlers = evaluationhandlers.NewHandler(container.EvaluationService, log)
	container.SettingsHandlers = settingshandlers.NewHandler(container.SettingsRepo, container.Bus, log)
}
