// Package di provides dependency injection for database connections.
package di

import (
	"fmt"

	"github.com/driftline/ballast/internal/config"
	"github.com/driftline/ballast/internal/database"
	"github.com/rs/zerolog"
)

// InitializeDatabases initializes all 3 databases and applies schemas
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container := &Container{}

	// 1. config.db - Settings and the model portfolio
	configDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/config.db",
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config database: %w", err)
	}
	container.ConfigDB = configDB

	// 2. portfolio.db - Snapshots and drift history (append-mostly record)
	portfolioDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/portfolio.db",
		Profile: database.ProfileLedger, // Maximum safety for the evaluation record
		Name:    "portfolio",
	})
	if err != nil {
		configDB.Close()
		return nil, fmt.Errorf("failed to initialize portfolio database: %w", err)
	}
	container.PortfolioDB = portfolioDB

	// 3. cache.db - Ephemeral evaluation cache
	cacheDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/cache.db",
		Profile: database.ProfileCache, // Maximum speed, rebuilt on the next evaluation
		Name:    "cache",
	})
	if err != nil {
		configDB.Close()
		portfolioDB.Close()
		return nil, fmt.Errorf("failed to initialize cache database: %w", err)
	}
	container.CacheDB = cacheDB

	// Apply schemas to all databases (single source of truth)
	for _, db := range []*database.DB{configDB, portfolioDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			configDB.Close()
			portfolioDB.Close()
			cacheDB.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
	}

	log.Info().Msg("All databases initialized and schemas applied")

	return container, nil
}
