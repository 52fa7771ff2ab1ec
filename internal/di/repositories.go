// Package di provides dependency injection for repository implementations.
package di

import (
	"fmt"

	"github.com/driftline/ballast/internal/modules/accounts"
	"github.com/driftline/ballast/internal/modules/allocation"
	"github.com/driftline/ballast/internal/modules/history"
	"github.com/driftline/ballast/internal/modules/settings"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories and stores them in the container
func InitializeRepositories(container *Container, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	// Settings repository (needs configDB) - read before services so
	// stored thresholds and schedules can override the environment
	container.SettingsRepo = settings.NewRepository(container.ConfigDB.Conn(), log)

	// Allocation repository (needs configDB)
	container.AllocationRepo = allocation.NewRepository(container.ConfigDB.Conn(), log)

	// Accounts repository (needs portfolioDB)
	container.AccountsRepo = accounts.NewRepository(container.PortfolioDB.Conn(), log)

	// History repository and cache (portfolioDB rows, cacheDB payloads)
	container.HistoryRepo = history.NewRepository(container.PortfolioDB.Conn(), log)
	container.HistoryCache = history.NewCache(container.CacheDB.Conn(), log)

	return nil
}
