package accounts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/driftline/ballast/internal/database"
	"github.com/driftline/ballast/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles snapshot persistence in portfolio.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "accounts").Logger(),
	}
}

// Save persists a snapshot with its classes and items, returning the new ID.
func (r *Repository) Save(snap *Snapshot) (int64, error) {
	var id int64

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		result, err := tx.Exec(
			`INSERT INTO snapshots (taken_at, total_eval_amount) VALUES (?, ?)`,
			snap.TakenAt.UTC().Format(time.RFC3339),
			snap.TotalEvalAmount,
		)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}

		id, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get snapshot id: %w", err)
		}

		for _, class := range domain.AssetClasses() {
			_, err := tx.Exec(
				`INSERT INTO snapshot_classes (snapshot_id, asset_class, actual_pct) VALUES (?, ?, ?)`,
				id, string(class), snap.Classes.Get(class),
			)
			if err != nil {
				return fmt.Errorf("failed to insert snapshot class %s: %w", class, err)
			}

			for _, item := range snap.Items[class] {
				_, err := tx.Exec(
					`INSERT INTO snapshot_items (snapshot_id, asset_class, ticker, name, weight_pct)
					VALUES (?, ?, ?, ?, ?)`,
					id, string(class), item.Ticker, item.Name, item.WeightPercent,
				)
				if err != nil {
					return fmt.Errorf("failed to insert snapshot item: %w", err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

// GetLatest returns the most recently taken snapshot, or nil if none exists.
func (r *Repository) GetLatest() (*Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, taken_at, total_eval_amount FROM snapshots ORDER BY taken_at DESC, id DESC LIMIT 1`,
	)
	return r.scanSnapshot(row)
}

// GetByID returns the snapshot with the given ID, or nil if it does not exist.
func (r *Repository) GetByID(id int64) (*Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, taken_at, total_eval_amount FROM snapshots WHERE id = ?`, id,
	)
	return r.scanSnapshot(row)
}

// Count returns the number of stored snapshots.
func (r *Repository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// PruneBefore deletes snapshots taken before the cutoff, returning the
// number removed. Classes and items cascade. The row identified by
// keepID survives even when it falls before the cutoff.
func (r *Repository) PruneBefore(cutoff time.Time, keepID int64) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM snapshots WHERE taken_at < ? AND id != ?`,
		cutoff.UTC().Format(time.RFC3339),
		keepID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get pruned row count: %w", err)
	}
	return removed, nil
}

func (r *Repository) scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var (
		snap    Snapshot
		takenAt string
	)
	if err := row.Scan(&snap.ID, &takenAt, &snap.TotalEvalAmount); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan snapshot: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339, takenAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot timestamp %q: %w", takenAt, err)
	}
	snap.TakenAt = parsed

	if err := r.loadClasses(&snap); err != nil {
		return nil, err
	}
	if err := r.loadItems(&snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

func (r *Repository) loadClasses(snap *Snapshot) error {
	rows, err := r.db.Query(
		`SELECT asset_class, actual_pct FROM snapshot_classes WHERE snapshot_id = ?`, snap.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to query snapshot classes: %w", err)
	}
	defer rows.Close()

	snap.Classes = make(domain.AllocationSet, len(domain.AssetClasses()))
	for _, class := range domain.AssetClasses() {
		snap.Classes[class] = 0
	}

	for rows.Next() {
		var (
			rawClass string
			pct      float64
		)
		if err := rows.Scan(&rawClass, &pct); err != nil {
			return fmt.Errorf("failed to scan snapshot class: %w", err)
		}
		class, ok := domain.ParseAssetClass(rawClass)
		if !ok {
			r.log.Warn().Str("asset_class", rawClass).Msg("Skipping unknown asset class in snapshot")
			continue
		}
		snap.Classes[class] = pct
	}

	return rows.Err()
}

func (r *Repository) loadItems(snap *Snapshot) error {
	rows, err := r.db.Query(
		`SELECT asset_class, ticker, name, weight_pct FROM snapshot_items WHERE snapshot_id = ? ORDER BY id`,
		snap.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to query snapshot items: %w", err)
	}
	defer rows.Close()

	snap.Items = make(map[domain.AssetClass][]domain.SubAllocationItem, len(domain.AssetClasses()))
	for _, class := range domain.AssetClasses() {
		snap.Items[class] = []domain.SubAllocationItem{}
	}

	for rows.Next() {
		var (
			rawClass string
			item     domain.SubAllocationItem
		)
		if err := rows.Scan(&rawClass, &item.Ticker, &item.Name, &item.WeightPercent); err != nil {
			return fmt.Errorf("failed to scan snapshot item: %w", err)
		}
		class, ok := domain.ParseAssetClass(rawClass)
		if !ok {
			r.log.Warn().Str("asset_class", rawClass).Msg("Skipping unknown asset class in snapshot item")
			continue
		}
		snap.Items[class] = append(snap.Items[class], item)
	}

	return rows.Err()
}
