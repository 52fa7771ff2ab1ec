package history

import (
	"database/sql"
	"testing"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE drift_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			evaluated_at TEXT NOT NULL,
			asset_class TEXT NOT NULL,
			target_pct REAL NOT NULL DEFAULT 0,
			actual_pct REAL NOT NULL DEFAULT 0,
			drift_pct REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL
		);
		CREATE TABLE evaluation_cache (
			key TEXT PRIMARY KEY,
			payload BLOB NOT NULL,
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);
	`)
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })
	return db
}

func newTestRepo(t *testing.T) *Repository {
	log := logger.New(logger.Config{Level: "error"})
	return NewRepository(setupTestDB(t), log)
}

func mpRecords(stocksDrift float64) []domain.DriftRecord {
	return []domain.DriftRecord{
		{AssetClass: domain.AssetClassStocks, TargetPercent: 60, ActualPercent: 60 + stocksDrift, DriftPercent: stocksDrift, Status: domain.DriftStatusRed},
		{AssetClass: domain.AssetClassBonds, TargetPercent: 30, ActualPercent: 30 - stocksDrift, DriftPercent: -stocksDrift, Status: domain.DriftStatusRed},
		{AssetClass: domain.AssetClassAlternatives, DriftPercent: 0, Status: domain.DriftStatusGreen},
		{AssetClass: domain.AssetClassCash, TargetPercent: 10, ActualPercent: 10, DriftPercent: 0, Status: domain.DriftStatusGreen},
	}
}

func TestRepositoryInsertAndSeries(t *testing.T) {
	repo := newTestRepo(t)

	first := time.Date(2026, 8, 18, 9, 0, 0, 0, time.UTC)
	second := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertRun("run-1", first, mpRecords(5)))
	require.NoError(t, repo.InsertRun("run-2", second, mpRecords(3)))

	points, err := repo.SeriesByClass(domain.AssetClassStocks, first.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "run-1", points[0].RunID)
	assert.Equal(t, 5.0, points[0].DriftPercent)
	assert.Equal(t, first, points[0].EvaluatedAt)
	assert.Equal(t, domain.DriftStatusRed, points[0].Status)

	assert.Equal(t, "run-2", points[1].RunID)
	assert.Equal(t, 3.0, points[1].DriftPercent)
}

func TestRepositorySeriesWindow(t *testing.T) {
	repo := newTestRepo(t)

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertRun("run-old", old, mpRecords(2)))
	require.NoError(t, repo.InsertRun("run-new", recent, mpRecords(4)))

	points, err := repo.SeriesByClass(domain.AssetClassStocks, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "run-new", points[0].RunID)
}

func TestRepositorySeriesFiltersClass(t *testing.T) {
	repo := newTestRepo(t)

	at := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.InsertRun("run-1", at, mpRecords(5)))

	points, err := repo.SeriesByClass(domain.AssetClassBonds, at.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, -5.0, points[0].DriftPercent)
}

func TestRepositoryRecentRuns(t *testing.T) {
	repo := newTestRepo(t)

	for i, runID := range []string{"run-1", "run-2", "run-3"} {
		at := time.Date(2026, 8, 17+i, 9, 0, 0, 0, time.UTC)
		require.NoError(t, repo.InsertRun(runID, at, mpRecords(float64(i+1))))
	}

	runs, err := repo.RecentRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-3", runs[0].RunID)
	assert.Equal(t, 4, runs[0].RecordCount)
	assert.Equal(t, 3.0, runs[0].MaxAbsDrift)
	assert.Equal(t, "run-2", runs[1].RunID)
}

func TestRepositoryPruneBefore(t *testing.T) {
	repo := newTestRepo(t)

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.InsertRun("run-old", old, mpRecords(1)))
	require.NoError(t, repo.InsertRun("run-new", recent, mpRecords(2)))

	removed, err := repo.PruneBefore(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(4), removed)

	runs, err := repo.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-new", runs[0].RunID)
}
