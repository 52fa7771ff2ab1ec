package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, name string, profile Profile) *DB {
	t.Helper()

	db, err := New(Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func TestNew_CreatesDatabase(t *testing.T) {
	db := newTestDB(t, "config", ProfileStandard)

	assert.Equal(t, "config", db.Name())
	assert.Equal(t, ProfileStandard, db.Profile())
	assert.NoError(t, db.QuickCheck(context.Background()))
}

func TestNew_DefaultsToStandardProfile(t *testing.T) {
	db, err := New(Config{
		Path: filepath.Join(t.TempDir(), "plain.db"),
		Name: "plain",
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, ProfileStandard, db.Profile())
}

func TestMigrate_AppliesEmbeddedSchema(t *testing.T) {
	db := newTestDB(t, "config", ProfileStandard)

	require.NoError(t, db.Migrate())

	// settings table must exist after migration
	_, err := db.Exec(`INSERT INTO settings (key, value) VALUES ('k', 'v')`)
	assert.NoError(t, err)

	// Migration is idempotent
	assert.NoError(t, db.Migrate())
}

func TestMigrate_EachKnownSchema(t *testing.T) {
	for name, profile := range map[string]Profile{
		"config":    ProfileStandard,
		"portfolio": ProfileLedger,
		"cache":     ProfileCache,
	} {
		t.Run(name, func(t *testing.T) {
			db := newTestDB(t, name, profile)
			assert.NoError(t, db.Migrate())
		})
	}
}

func TestMigrate_UnknownNameIsSkipped(t *testing.T) {
	db := newTestDB(t, "scratch", ProfileStandard)
	assert.NoError(t, db.Migrate())
}

func TestWithTransaction_Commit(t *testing.T) {
	db := newTestDB(t, "config", ProfileStandard)
	require.NoError(t, db.Migrate())

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO settings (key, value) VALUES ('a', '1')`)
		return err
	})
	require.NoError(t, err)

	var value string
	require.NoError(t, db.QueryRow(`SELECT value FROM settings WHERE key = 'a'`).Scan(&value))
	assert.Equal(t, "1", value)
}

func TestWithTransaction_RollbackOnError(t *testing.T) {
	db := newTestDB(t, "config", ProfileStandard)
	require.NoError(t, db.Migrate())

	boom := errors.New("boom")
	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		if _, execErr := tx.Exec(`INSERT INTO settings (key, value) VALUES ('b', '2')`); execErr != nil {
			return execErr
		}
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM settings WHERE key = 'b'`).Scan(&count))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_RecoversPanic(t *testing.T) {
	db := newTestDB(t, "config", ProfileStandard)
	require.NoError(t, db.Migrate())

	err := WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		panic("unexpected")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in transaction")
}

func TestWithTransaction_NilConnection(t *testing.T) {
	err := WithTransaction(nil, func(tx *sql.Tx) error { return nil })
	assert.Error(t, err)
}

func TestHealthCheck(t *testing.T) {
	db := newTestDB(t, "portfolio", ProfileLedger)
	require.NoError(t, db.Migrate())

	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t, "cache", ProfileCache)
	require.NoError(t, db.Migrate())

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageSize, int64(0))
	assert.Greater(t, stats.PageCount, int64(0))
}

func TestWALCheckpoint(t *testing.T) {
	db := newTestDB(t, "config", ProfileStandard)
	require.NoError(t, db.Migrate())

	assert.NoError(t, db.WALCheckpoint(""))
	assert.NoError(t, db.WALCheckpoint("PASSIVE"))
}
