package di

import (
	"testing"

	"github.com/driftline/ballast/internal/config"
	"github.com/driftline/ballast/internal/database"
	"github.com/driftline/ballast/internal/modules/settings"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dataDir string) *config.Config {
	return &config.Config{
		DataDir:               dataDir,
		Port:                  8080,
		MPThresholdPercent:    3.0,
		SubMPThresholdPercent: 5.0,
		EvaluationSchedule:    "0 */15 * * * *",
		RetentionDays:         365,
		RetentionSchedule:     "0 0 4 * * 0",
	}
}

func TestWire(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testConfig(tmpDir)
	log := zerolog.Nop()

	container, err := Wire(cfg, log)
	require.NoError(t, err)
	require.NotNil(t, container)

	t.Cleanup(func() {
		container.ConfigDB.Close()
		container.PortfolioDB.Close()
		container.CacheDB.Close()
	})

	// Databases and bus
	assert.NotNil(t, container.ConfigDB)
	assert.NotNil(t, container.PortfolioDB)
	assert.NotNil(t, container.CacheDB)
	assert.NotNil(t, container.Bus)

	// Repositories
	assert.NotNil(t, container.SettingsRepo)
	assert.NotNil(t, container.AllocationRepo)
	assert.NotNil(t, container.AccountsRepo)
	assert.NotNil(t, container.HistoryRepo)
	assert.NotNil(t, container.HistoryCache)

	// Services
	assert.NotNil(t, container.AllocationService)
	assert.NotNil(t, container.AccountsService)
	assert.NotNil(t, container.DriftService)
	assert.NotNil(t, container.RebalancingService)
	assert.NotNil(t, container.PresentationService)
	assert.NotNil(t, container.HistoryService)
	assert.NotNil(t, container.EvaluationService)

	// Backups are not configured, the service must stay nil
	assert.Nil(t, container.BackupService)

	// Handlers
	assert.NotNil(t, container.AllocationHandlers)
	assert.NotNil(t, container.AccountsHandlers)
	assert.NotNil(t, container.DriftHandlers)
	assert.NotNil(t, container.RebalancingHandlers)
	assert.NotNil(t, container.PresentationHandlers)
	assert.NotNil(t, container.HistoryHandlers)
	assert.NotNil(t, container.EvaluationHandlers)
	assert.NotNil(t, container.SettingsHandlers)

	// Scheduler with jobs registered
	assert.NotNil(t, container.Scheduler)
}

func TestWireAppliesSettingsOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	log := zerolog.Nop()

	// Seed the settings database before wiring
	seedDB, err := database.New(database.Config{
		Path:    tmpDir + "/config.db",
		Profile: database.ProfileStandard,
		Name:    "config",
	})
	require.NoError(t, err)
	require.NoError(t, seedDB.Migrate())
	repo := settings.NewRepository(seedDB.Conn(), log)
	require.NoError(t, repo.Set("evaluation_schedule", "0 0 * * * *"))
	require.NoError(t, repo.Set("mp_threshold_percent", "2.5"))
	require.NoError(t, seedDB.Close())

	cfg := testConfig(tmpDir)
	container, err := Wire(cfg, log)
	require.NoError(t, err)

	t.Cleanup(func() {
		container.ConfigDB.Close()
		container.PortfolioDB.Close()
		container.CacheDB.Close()
	})

	// Stored settings took precedence over the environment defaults
	assert.Equal(t, "0 0 * * * *", cfg.EvaluationSchedule)
	assert.Equal(t, 2.5, cfg.MPThresholdPercent)
}

func TestWireInvalidEvaluationSchedule(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := testConfig(tmpDir)
	cfg.EvaluationSchedule = "definitely not cron"

	container, err := Wire(cfg, zerolog.Nop())
	require.Error(t, err)
	assert.Nil(t, container)
	assert.Contains(t, err.Error(), "evaluation job")
}

func TestRegisterJobsNilContainer(t *testing.T) {
	err := RegisterJobs(nil, testConfig(t.TempDir()), zerolog.Nop())
	require.Error(t, err)
}

func TestInitializeRepositoriesNilContainer(t *testing.T) {
	err := InitializeRepositories(nil, zerolog.Nop())
	require.Error(t, err)
}

func TestInitializeServicesNilContainer(t *testing.T) {
	err := InitializeServices(nil, testConfig(t.TempDir()), zerolog.Nop())
	require.Error(t, err)
}
