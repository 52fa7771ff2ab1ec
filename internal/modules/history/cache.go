package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/driftline/ballast/internal/domain"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// CachedEvaluation is the snapshot of the most recent evaluation run,
// kept in cache.db so dashboards can show the last result without
// recomputing it.
type CachedEvaluation struct {
	RunID           string               `msgpack:"run_id" json:"run_id"`
	EvaluatedAt     time.Time            `msgpack:"evaluated_at" json:"evaluated_at"`
	TotalEvalAmount float64              `msgpack:"total_eval_amount" json:"total_eval_amount"`
	WorstClass      string               `msgpack:"worst_class" json:"worst_class"`
	WorstStatus     string               `msgpack:"worst_status" json:"worst_status"`
	MPOrderCount    int                  `msgpack:"mp_order_count" json:"mp_order_count"`
	SubMPOrderCount int                  `msgpack:"sub_mp_order_count" json:"sub_mp_order_count"`
	Records         []domain.DriftRecord `msgpack:"records" json:"records"`
}

const latestEvaluationKey = "latest_evaluation"

// Cache stores serialized evaluation results in cache.db. Contents are
// disposable; losing them only costs a recomputation.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCache creates a new evaluation cache
func NewCache(db *sql.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		log: log.With().Str("repository", "evaluation_cache").Logger(),
	}
}

// StoreLatest replaces the cached latest evaluation.
func (c *Cache) StoreLatest(eval *CachedEvaluation) error {
	payload, err := msgpack.Marshal(eval)
	if err != nil {
		return fmt.Errorf("failed to serialize evaluation: %w", err)
	}

	_, err = c.db.Exec(
		`INSERT INTO evaluation_cache (key, payload, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = datetime('now')`,
		latestEvaluationKey,
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to store cached evaluation: %w", err)
	}

	return nil
}

// Latest returns the cached evaluation, or nil when none is stored or
// the payload no longer deserializes.
func (c *Cache) Latest() (*CachedEvaluation, error) {
	var payload []byte
	err := c.db.QueryRow(
		`SELECT payload FROM evaluation_cache WHERE key = ?`, latestEvaluationKey,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached evaluation: %w", err)
	}

	var eval CachedEvaluation
	if err := msgpack.Unmarshal(payload, &eval); err != nil {
		c.log.Warn().Err(err).Msg("Discarding undecodable cached evaluation")
		return nil, nil
	}

	return &eval, nil
}

// Clear drops the cached evaluation.
func (c *Cache) Clear() error {
	_, err := c.db.Exec(`DELETE FROM evaluation_cache WHERE key = ?`, latestEvaluationKey)
	if err != nil {
		return fmt.Errorf("failed to clear cached evaluation: %w", err)
	}
	return nil
}
