package presentation

import (
	"database/sql"
	"testing"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/internal/modules/accounts"
	"github.com/driftline/ballast/internal/modules/allocation"
	"github.com/driftline/ballast/internal/modules/drift"
	"github.com/driftline/ballast/internal/modules/settings"
	"github.com/driftline/ballast/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestBuildViewAllCashPortfolio(t *testing.T) {
	input := &domain.RebalancingStatus{
		TargetAllocation: domain.AllocationSet{
			domain.AssetClassStocks: 60,
			domain.AssetClassBonds:  30,
			domain.AssetClassCash:   10,
		},
		ActualAllocation: domain.AllocationSet{domain.AssetClassCash: 100},
		Thresholds:       domain.DefaultThresholds(),
	}

	view := BuildView(input, 1_000_000, time.Now().UTC())

	var cash *ClassView
	for i := range view.Classes {
		if view.Classes[i].AssetClass == domain.AssetClassCash {
			cash = &view.Classes[i]
		}
	}
	require.NotNil(t, cash)

	require.Len(t, cash.Actual, 1)
	assert.Equal(t, "Cash", cash.Actual[0].Label)
	assert.Equal(t, 100.0, cash.Actual[0].Value)
	assert.Equal(t, 1_000_000.0, cash.Actual[0].Amount)
	assert.NotEqual(t, PlaceholderLabel, cash.Actual[0].Label)
}

func TestBuildViewEmptyInputRendersPlaceholders(t *testing.T) {
	input := &domain.RebalancingStatus{}

	view := BuildView(input, 0, time.Now().UTC())

	require.Len(t, view.MPTarget, 1)
	assert.Equal(t, PlaceholderLabel, view.MPTarget[0].Label)
	require.Len(t, view.MPActual, 1)
	assert.Equal(t, PlaceholderLabel, view.MPActual[0].Label)

	require.Len(t, view.Classes, 4)
	for _, class := range view.Classes {
		require.Len(t, class.Target, 1)
		assert.Equal(t, PlaceholderLabel, class.Target[0].Label)
	}
}

func TestBuildViewMixedPortfolio(t *testing.T) {
	input := &domain.RebalancingStatus{
		TargetAllocation: domain.AllocationSet{
			domain.AssetClassStocks: 60,
			domain.AssetClassBonds:  30,
			domain.AssetClassCash:   10,
		},
		ActualAllocation: domain.AllocationSet{
			domain.AssetClassStocks: 65,
			domain.AssetClassBonds:  25,
			domain.AssetClassCash:   10,
		},
		SubAllocations: []domain.SubAllocationBucket{
			{
				AssetClass: domain.AssetClassStocks,
				Target: []domain.SubAllocationItem{
					{Ticker: "VWCE", Name: "Vanguard FTSE All-World", WeightPercent: 100},
				},
				Actual: []domain.SubAllocationItem{
					{Ticker: "VWCE", Name: "Vanguard FTSE All-World", WeightPercent: 100},
				},
			},
		},
		Thresholds: domain.DefaultThresholds(),
	}

	view := BuildView(input, 10_000_000, time.Now().UTC())

	require.Len(t, view.MPTarget, 3, "alternatives at zero is omitted")
	assert.Equal(t, "Stocks", view.MPTarget[0].Label)
	assert.Equal(t, 6_000_000.0, view.MPTarget[0].Amount)

	stocks := view.Classes[0]
	require.Len(t, stocks.Actual, 1)
	assert.Equal(t, 6_500_000.0, stocks.Actual[0].Amount, "actual side uses the actual class weight")
	require.Len(t, stocks.Target, 1)
	assert.Equal(t, 6_000_000.0, stocks.Target[0].Amount, "target side uses the target class weight")
}

func setupViewService(t *testing.T) (*Service, *allocation.Service, *accounts.Service) {
	log := logger.New(logger.Config{Level: "error"})

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE TABLE model_portfolio (
			asset_class TEXT PRIMARY KEY,
			target_pct REAL NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE TABLE model_portfolio_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			asset_class TEXT NOT NULL,
			ticker TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			weight_pct REAL NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL DEFAULT (datetime('now')),
			UNIQUE (asset_class, ticker, name)
		);
		CREATE TABLE snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at TEXT NOT NULL,
			total_eval_amount REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE TABLE snapshot_classes (
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			asset_class TEXT NOT NULL,
			actual_pct REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (snapshot_id, asset_class)
		);
		CREATE TABLE snapshot_items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			asset_class TEXT NOT NULL,
			ticker TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			weight_pct REAL NOT NULL DEFAULT 0
		);
	`)
	require.NoError(t, err)

	bus := events.NewBus(log)
	settingsRepo := settings.NewRepository(db, log)
	allocationSvc := allocation.NewService(allocation.NewRepository(db, log), bus, log)
	accountsSvc := accounts.NewService(accounts.NewRepository(db, log), bus, log)
	driftSvc := drift.NewService(allocationSvc, accountsSvc, settingsRepo, domain.DefaultThresholds(), bus, log)

	return NewService(driftSvc, log), allocationSvc, accountsSvc
}

func TestServiceViewAllCashSnapshot(t *testing.T) {
	svc, allocationSvc, accountsSvc := setupViewService(t)

	err := allocationSvc.ReplaceModel(&allocation.ModelPortfolio{
		Targets: domain.AllocationSet{
			domain.AssetClassStocks: 60,
			domain.AssetClassBonds:  30,
			domain.AssetClassCash:   10,
		},
	})
	require.NoError(t, err)

	_, err = accountsSvc.Ingest(&accounts.RawSnapshot{
		TotalEvalAmount: 250_000,
		Classes:         map[string]float64{"cash": 100},
	})
	require.NoError(t, err)

	view, err := svc.View()
	require.NoError(t, err)

	cash := view.Classes[3]
	require.Equal(t, domain.AssetClassCash, cash.AssetClass)
	require.Len(t, cash.Actual, 1)
	assert.Equal(t, "Cash", cash.Actual[0].Label)
	assert.Equal(t, 100.0, cash.Actual[0].Value)
	assert.Equal(t, 250_000.0, cash.Actual[0].Amount)
}

func TestServiceViewEmptyStore(t *testing.T) {
	svc, _, _ := setupViewService(t)

	view, err := svc.View()
	require.NoError(t, err)

	assert.Equal(t, 0.0, view.TotalEvalAmount)
	require.Len(t, view.MPActual, 1)
	assert.Equal(t, PlaceholderLabel, view.MPActual[0].Label)
}
