package allocation

import (
	"database/sql"
	"testing"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE model_portfolio (
			asset_class TEXT PRIMARY KEY,
			target_pct  REAL NOT NULL DEFAULT 0,
			updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
		);
		CREATE TABLE model_portfolio_items (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			asset_class TEXT NOT NULL,
			ticker      TEXT NOT NULL DEFAULT '',
			name        TEXT NOT NULL,
			weight_pct  REAL NOT NULL DEFAULT 0,
			updated_at  TEXT NOT NULL DEFAULT (datetime('now')),
			UNIQUE (asset_class, ticker, name)
		);
	`)
	require.NoError(t, err)

	return db
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(setupTestDB(t), logger.New(logger.Config{Level: "error"}))
}

func sampleModel() *ModelPortfolio {
	return &ModelPortfolio{
		Targets: domain.AllocationSet{
			domain.AssetClassStocks: 60,
			domain.AssetClassBonds:  30,
			domain.AssetClassCash:   10,
		},
		Items: map[domain.AssetClass][]domain.SubAllocationItem{
			domain.AssetClassStocks: {
				{Ticker: "VWCE", Name: "FTSE All-World", WeightPercent: 70},
				{Ticker: "QDVE", Name: "S&P 500 IT", WeightPercent: 30},
			},
			domain.AssetClassBonds: {
				{Name: "Global Aggregate Bond", WeightPercent: 100},
			},
		},
	}
}

func TestIsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	empty, err := repo.IsEmpty()
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, repo.ReplaceModel(sampleModel()))

	empty, err = repo.IsEmpty()
	require.NoError(t, err)
	assert.False(t, empty)
}

func TestReplaceModel_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.ReplaceModel(sampleModel()))

	model, err := repo.GetModel()
	require.NoError(t, err)

	assert.Equal(t, 60.0, model.Targets[domain.AssetClassStocks])
	assert.Equal(t, 30.0, model.Targets[domain.AssetClassBonds])
	assert.Equal(t, 10.0, model.Targets[domain.AssetClassCash])
	_, hasAlternatives := model.Targets[domain.AssetClassAlternatives]
	assert.False(t, hasAlternatives)

	require.Len(t, model.Items[domain.AssetClassStocks], 2)
	assert.Equal(t, "VWCE", model.Items[domain.AssetClassStocks][0].Ticker)
	assert.Equal(t, 70.0, model.Items[domain.AssetClassStocks][0].WeightPercent)

	require.Len(t, model.Items[domain.AssetClassBonds], 1)
	assert.Equal(t, "", model.Items[domain.AssetClassBonds][0].Ticker)
	assert.Equal(t, "Global Aggregate Bond", model.Items[domain.AssetClassBonds][0].Name)
}

func TestReplaceModel_DiscardsPreviousModel(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.ReplaceModel(sampleModel()))

	replacement := &ModelPortfolio{
		Targets: domain.AllocationSet{domain.AssetClassCash: 100},
		Items:   map[domain.AssetClass][]domain.SubAllocationItem{},
	}
	require.NoError(t, repo.ReplaceModel(replacement))

	model, err := repo.GetModel()
	require.NoError(t, err)

	assert.Len(t, model.Targets, 1)
	assert.Equal(t, 100.0, model.Targets[domain.AssetClassCash])
	assert.Empty(t, model.Items)
}

func TestGetItems_SingleClass(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.ReplaceModel(sampleModel()))

	items, err := repo.GetItems(domain.AssetClassStocks)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "VWCE", items[0].Ticker)

	items, err = repo.GetItems(domain.AssetClassCash)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpsertTarget(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertTarget(domain.AssetClassStocks, 55))
	require.NoError(t, repo.UpsertTarget(domain.AssetClassStocks, 65))

	targets, err := repo.GetTargets()
	require.NoError(t, err)
	assert.Equal(t, 65.0, targets[domain.AssetClassStocks])
}

func TestGetTargets_SkipsUnknownClasses(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.db.Exec(`INSERT INTO model_portfolio (asset_class, target_pct) VALUES ('CRYPTO', 5)`)
	require.NoError(t, err)
	require.NoError(t, repo.UpsertTarget(domain.AssetClassBonds, 40))

	targets, err := repo.GetTargets()
	require.NoError(t, err)
	assert.Len(t, targets, 1)
	assert.Equal(t, 40.0, targets[domain.AssetClassBonds])
}
