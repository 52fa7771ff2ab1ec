package allocation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/events"
	"github.com/driftline/ballast/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *events.Bus) {
	t.Helper()
	log := logger.New(logger.Config{Level: "error"})
	bus := events.NewBus(log)
	return NewService(NewRepository(setupTestDB(t), log), bus, log), bus
}

func TestService_ReplaceModel_SanitizesAndPublishes(t *testing.T) {
	svc, bus := newTestService(t)

	var published *events.Event
	bus.Subscribe(events.AllocationUpdated, func(e *events.Event) { published = e })

	err := svc.ReplaceModel(&ModelPortfolio{
		Targets: domain.AllocationSet{
			domain.AssetClassStocks: -10, // clamped to 0
			domain.AssetClassCash:   100,
		},
		Items: map[domain.AssetClass][]domain.SubAllocationItem{
			domain.AssetClassStocks: {{Ticker: " AAA ", Name: "Alpha", WeightPercent: 100}},
		},
	})
	require.NoError(t, err)

	model, err := svc.GetModel()
	require.NoError(t, err)
	assert.Equal(t, 0.0, model.Targets[domain.AssetClassStocks])
	assert.Equal(t, 100.0, model.Targets[domain.AssetClassCash])
	assert.Equal(t, "AAA", model.Items[domain.AssetClassStocks][0].Ticker)

	require.NotNil(t, published)
	data, ok := published.Data.(*events.AllocationUpdatedData)
	require.True(t, ok)
	assert.Equal(t, 1, data.Items)
}

func TestService_ReplaceModel_NilModel(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Error(t, svc.ReplaceModel(nil))
}

func TestService_GetModel_EmptyStoreIsAllZero(t *testing.T) {
	svc, _ := newTestService(t)

	model, err := svc.GetModel()
	require.NoError(t, err)

	for _, class := range domain.AssetClasses() {
		assert.Equal(t, 0.0, model.Targets[class])
	}
}

func TestService_SeedIfEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	seedPath := filepath.Join(t.TempDir(), "model.yaml")
	seedYAML := `
targets:
  stocks: 60
  bonds: 30
  cash: 10
items:
  stocks:
    - ticker: VWCE
      name: FTSE All-World
      weight_percent: 100
`
	require.NoError(t, os.WriteFile(seedPath, []byte(seedYAML), 0644))

	require.NoError(t, svc.SeedIfEmpty(seedPath))

	model, err := svc.GetModel()
	require.NoError(t, err)
	assert.Equal(t, 60.0, model.Targets[domain.AssetClassStocks])
	require.Len(t, model.Items[domain.AssetClassStocks], 1)
	assert.Equal(t, "VWCE", model.Items[domain.AssetClassStocks][0].Ticker)

	// Seeding again must not overwrite a populated store
	otherPath := filepath.Join(t.TempDir(), "other.yaml")
	require.NoError(t, os.WriteFile(otherPath, []byte("targets:\n  cash: 100\n"), 0644))
	require.NoError(t, svc.SeedIfEmpty(otherPath))

	model, err = svc.GetModel()
	require.NoError(t, err)
	assert.Equal(t, 60.0, model.Targets[domain.AssetClassStocks])
}

func TestService_SeedIfEmpty_NoPathIsNoop(t *testing.T) {
	svc, _ := newTestService(t)
	assert.NoError(t, svc.SeedIfEmpty(""))
}

func TestLoadSeedFile_UnknownClass(t *testing.T) {
	seedPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(seedPath, []byte("targets:\n  crypto: 50\n"), 0644))

	_, err := LoadSeedFile(seedPath)
	assert.Error(t, err)
}

func TestLoadSeedFile_MissingFile(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
