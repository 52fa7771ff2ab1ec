// Package history persists per-class drift measurements across evaluation
// runs and derives statistics and trends from the stored series.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/driftline/ballast/internal/database"
	"github.com/driftline/ballast/internal/domain"
	"github.com/rs/zerolog"
)

// Point is one stored drift measurement for one asset class.
type Point struct {
	RunID        string             `json:"run_id"`
	EvaluatedAt  time.Time          `json:"evaluated_at"`
	TargetPct    float64            `json:"target_pct"`
	ActualPct    float64            `json:"actual_pct"`
	DriftPercent float64            `json:"drift_percent"`
	Status       domain.DriftStatus `json:"status"`
}

// RunSummary aggregates one evaluation run.
type RunSummary struct {
	RunID       string    `json:"run_id"`
	EvaluatedAt time.Time `json:"evaluated_at"`
	RecordCount int       `json:"record_count"`
	MaxAbsDrift float64   `json:"max_abs_drift"`
}

// Repository handles drift history persistence in portfolio.db
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "history").Logger(),
	}
}

// InsertRun stores the MP-level records of one evaluation run.
func (r *Repository) InsertRun(runID string, evaluatedAt time.Time, records []domain.DriftRecord) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for _, record := range records {
			_, err := tx.Exec(
				`INSERT INTO drift_history (run_id, evaluated_at, asset_class, target_pct, actual_pct, drift_pct, status)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runID,
				evaluatedAt.UTC().Format(time.RFC3339),
				string(record.AssetClass),
				record.TargetPercent,
				record.ActualPercent,
				record.DriftPercent,
				string(record.Status),
			)
			if err != nil {
				return fmt.Errorf("failed to insert drift history record: %w", err)
			}
		}
		return nil
	})
}

// SeriesByClass returns the chronological drift series for one class
// since the given time.
func (r *Repository) SeriesByClass(class domain.AssetClass, since time.Time) ([]Point, error) {
	rows, err := r.db.Query(
		`SELECT run_id, evaluated_at, target_pct, actual_pct, drift_pct, status
		FROM drift_history
		WHERE asset_class = ? AND evaluated_at >= ?
		ORDER BY evaluated_at ASC, id ASC`,
		string(class),
		since.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query drift history: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var (
			point       Point
			evaluatedAt string
			status      string
		)
		if err := rows.Scan(&point.RunID, &evaluatedAt, &point.TargetPct, &point.ActualPct, &point.DriftPercent, &status); err != nil {
			return nil, fmt.Errorf("failed to scan drift history record: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, evaluatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse drift history timestamp %q: %w", evaluatedAt, err)
		}
		point.EvaluatedAt = parsed
		point.Status = domain.DriftStatus(status)
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drift history: %w", err)
	}

	return points, nil
}

// RecentRuns returns the newest runs, most recent first.
func (r *Repository) RecentRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(
		`SELECT run_id, evaluated_at, COUNT(*), MAX(ABS(drift_pct))
		FROM drift_history
		GROUP BY run_id, evaluated_at
		ORDER BY evaluated_at DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			run         RunSummary
			evaluatedAt string
		)
		if err := rows.Scan(&run.RunID, &evaluatedAt, &run.RecordCount, &run.MaxAbsDrift); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339, evaluatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run timestamp %q: %w", evaluatedAt, err)
		}
		run.EvaluatedAt = parsed
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run summaries: %w", err)
	}

	return runs, nil
}

// PruneBefore deletes history rows older than the cutoff.
func (r *Repository) PruneBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM drift_history WHERE evaluated_at < ?`,
		cutoff.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune drift history: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get pruned row count: %w", err)
	}
	return removed, nil
}
