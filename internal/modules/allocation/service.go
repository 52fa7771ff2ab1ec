package allocation

import (
	"fmt"
	"math"

	"github.com/driftline/ballast/internal/domain"
	"github.com/driftline/ballast/internal/events"
	"github.com/rs/zerolog"
)

// Service manages the model portfolio and applies input normalization
// before anything is stored or returned.
type Service struct {
	repo *Repository
	bus  *events.Bus
	log  zerolog.Logger
}

// NewService creates a new allocation service
func NewService(repo *Repository, bus *events.Bus, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log.With().Str("service", "allocation").Logger(),
	}
}

// GetModel returns the stored model portfolio with normalized targets and
// sanitized items. An empty store yields an all-zero model, not an error.
func (s *Service) GetModel() (*ModelPortfolio, error) {
	model, err := s.repo.GetModel()
	if err != nil {
		return nil, err
	}
	return s.sanitizeModel(model), nil
}

// ReplaceModel sanitizes and persists a new model portfolio, then
// publishes an AllocationUpdated event.
func (s *Service) ReplaceModel(model *ModelPortfolio) error {
	if model == nil {
		return fmt.Errorf("model portfolio is nil")
	}

	sanitized := s.sanitizeModel(model)

	// Diagnostic only: item weights inside a class are expected to cover
	// the class, but the engine never force-renormalizes.
	for class, items := range sanitized.Items {
		if len(items) == 0 {
			continue
		}
		if total := TotalOf(items); math.Abs(total-100) > 0.01 {
			s.log.Warn().
				Str("asset_class", string(class)).
				Float64("total_weight", total).
				Msg("Sub-allocation weights do not sum to 100")
		}
	}

	if err := s.repo.ReplaceModel(sanitized); err != nil {
		return err
	}

	itemCount := 0
	for _, items := range sanitized.Items {
		itemCount += len(items)
	}

	if s.bus != nil {
		s.bus.Publish("allocation", &events.AllocationUpdatedData{
			Classes: len(sanitized.Targets),
			Items:   itemCount,
		})
	}

	return nil
}

// SeedIfEmpty bootstraps the model portfolio from a YAML seed file when
// nothing has been stored yet. A missing path or populated store is a no-op.
func (s *Service) SeedIfEmpty(path string) error {
	if path == "" {
		return nil
	}

	empty, err := s.repo.IsEmpty()
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	model, err := LoadSeedFile(path)
	if err != nil {
		return fmt.Errorf("failed to load model seed: %w", err)
	}

	if err := s.ReplaceModel(model); err != nil {
		return fmt.Errorf("failed to store model seed: %w", err)
	}

	s.log.Info().Str("path", path).Msg("Model portfolio seeded from file")
	return nil
}

func (s *Service) sanitizeModel(model *ModelPortfolio) *ModelPortfolio {
	sanitized := &ModelPortfolio{
		Targets: Normalize(model.Targets),
		Items:   make(map[domain.AssetClass][]domain.SubAllocationItem, len(model.Items)),
	}
	for class, items := range model.Items {
		sanitized.Items[class] = SanitizeItems(items)
	}
	return sanitized
}
