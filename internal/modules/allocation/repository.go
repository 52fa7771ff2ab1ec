package allocation

import (
	"database/sql"
	"fmt"

	"github.com/driftline/ballast/internal/database"
	"github.com/driftline/ballast/internal/domain"
	"github.com/rs/zerolog"
)

// ModelPortfolio is the stored target model: MP percentages per asset
// class plus the Sub-MP instrument weights inside each class.
type ModelPortfolio struct {
	Targets domain.AllocationSet                             `json:"targets"`
	Items   map[domain.AssetClass][]domain.SubAllocationItem `json:"items"`
}

// Repository handles model portfolio storage in config.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new allocation repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "allocation").Logger(),
	}
}

// GetTargets returns the stored MP target percentages. Classes without a
// stored row are absent from the map; callers normalize.
func (r *Repository) GetTargets() (domain.AllocationSet, error) {
	rows, err := r.db.Query("SELECT asset_class, target_pct FROM model_portfolio")
	if err != nil {
		return nil, fmt.Errorf("failed to query model portfolio targets: %w", err)
	}
	defer rows.Close()

	targets := make(domain.AllocationSet)
	for rows.Next() {
		var rawClass string
		var pct float64
		if err := rows.Scan(&rawClass, &pct); err != nil {
			return nil, fmt.Errorf("failed to scan target row: %w", err)
		}
		class, ok := domain.ParseAssetClass(rawClass)
		if !ok {
			r.log.Warn().Str("asset_class", rawClass).Msg("Skipping unknown asset class in model portfolio")
			continue
		}
		targets[class] = pct
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating target rows: %w", err)
	}

	return targets, nil
}

// GetItems returns the stored Sub-MP items for one asset class
func (r *Repository) GetItems(class domain.AssetClass) ([]domain.SubAllocationItem, error) {
	rows, err := r.db.Query(`
		SELECT ticker, name, weight_pct
		FROM model_portfolio_items
		WHERE asset_class = ?
		ORDER BY id
	`, string(class))
	if err != nil {
		return nil, fmt.Errorf("failed to query model items for %s: %w", class, err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetAllItems returns the stored Sub-MP items grouped by asset class
func (r *Repository) GetAllItems() (map[domain.AssetClass][]domain.SubAllocationItem, error) {
	rows, err := r.db.Query(`
		SELECT asset_class, ticker, name, weight_pct
		FROM model_portfolio_items
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query model items: %w", err)
	}
	defer rows.Close()

	items := make(map[domain.AssetClass][]domain.SubAllocationItem)
	for rows.Next() {
		var rawClass, ticker, name string
		var weight float64
		if err := rows.Scan(&rawClass, &ticker, &name, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		class, ok := domain.ParseAssetClass(rawClass)
		if !ok {
			r.log.Warn().Str("asset_class", rawClass).Msg("Skipping item with unknown asset class")
			continue
		}
		items[class] = append(items[class], domain.SubAllocationItem{
			Ticker:        ticker,
			Name:          name,
			WeightPercent: weight,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}

// GetModel assembles the full stored model portfolio
func (r *Repository) GetModel() (*ModelPortfolio, error) {
	targets, err := r.GetTargets()
	if err != nil {
		return nil, err
	}
	items, err := r.GetAllItems()
	if err != nil {
		return nil, err
	}
	return &ModelPortfolio{Targets: targets, Items: items}, nil
}

// ReplaceModel replaces the entire stored model portfolio in one
// transaction. The previous model is gone after this succeeds.
func (r *Repository) ReplaceModel(model *ModelPortfolio) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM model_portfolio"); err != nil {
			return fmt.Errorf("failed to clear model portfolio: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM model_portfolio_items"); err != nil {
			return fmt.Errorf("failed to clear model portfolio items: %w", err)
		}

		for _, class := range domain.AssetClasses() {
			pct, ok := model.Targets[class]
			if !ok {
				continue
			}
			if _, err := tx.Exec(`
				INSERT INTO model_portfolio (asset_class, target_pct, updated_at)
				VALUES (?, ?, datetime('now'))
			`, string(class), pct); err != nil {
				return fmt.Errorf("failed to insert target for %s: %w", class, err)
			}
		}

		for _, class := range domain.AssetClasses() {
			for _, item := range model.Items[class] {
				if _, err := tx.Exec(`
					INSERT INTO model_portfolio_items (asset_class, ticker, name, weight_pct, updated_at)
					VALUES (?, ?, ?, ?, datetime('now'))
				`, string(class), item.Ticker, item.Name, item.WeightPercent); err != nil {
					return fmt.Errorf("failed to insert item %s for %s: %w", item.Key(), class, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().Int("classes", len(model.Targets)).Msg("Model portfolio replaced")
	return nil
}

// UpsertTarget sets the MP target percentage for one asset class
func (r *Repository) UpsertTarget(class domain.AssetClass, pct float64) error {
	_, err := r.db.Exec(`
		INSERT INTO model_portfolio (asset_class, target_pct, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(asset_class) DO UPDATE SET
			target_pct = excluded.target_pct,
			updated_at = excluded.updated_at
	`, string(class), pct)
	if err != nil {
		return fmt.Errorf("failed to upsert target for %s: %w", class, err)
	}
	return nil
}

// IsEmpty reports whether no model portfolio has been stored yet
func (r *Repository) IsEmpty() (bool, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM model_portfolio").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to count model portfolio rows: %w", err)
	}
	return count == 0, nil
}

func scanItems(rows *sql.Rows) ([]domain.SubAllocationItem, error) {
	var items []domain.SubAllocationItem
	for rows.Next() {
		var ticker, name string
		var weight float64
		if err := rows.Scan(&ticker, &name, &weight); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		items = append(items, domain.SubAllocationItem{
			Ticker:        ticker,
			Name:          name,
			WeightPercent: weight,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}
	return items, nil
}
