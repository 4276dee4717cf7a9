package cache

import (
	"context"
	"database/sql"
	"errors"
	"field-dispatch-service/internal/platform/obs"
	"field-dispatch-service/internal/ports"
	"fmt"
	"strings"
)

// SQLLegCache is a SQL-backed cache for per-leg route metrics, keyed by
// routing mode and an origin|destination pair.
type SQLLegCache struct {
	DB *sql.DB
}

func NewSQLLegCache(db *sql.DB) *SQLLegCache {
	return &SQLLegCache{DB: db}
}

// Fetch cached legs for one routing mode and multiple leg keys.
func (s *SQLLegCache) GetMany(
	ctx context.Context,
	mode string,
	keys []string,
) (_ map[string]ports.LegMetrics, err error) {
	defer obs.Time(ctx, "leg.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("leg cache: db is nil")
	}

	if mode == "" {
		return nil, errors.New("get leg cache: mode must not be empty")
	}

	uniq := uniqueNonEmpty(keys)
	if len(uniq) == 0 {
		return map[string]ports.LegMetrics{}, nil
	}

	q := `
	SELECT cache_key, distance_meters, duration_seconds
    FROM leg_cache
    WHERE mode = $1
        AND cache_key = ANY($2::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, mode, uniq)
	if err != nil {
		return nil, fmt.Errorf("get leg cache: query leg_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ports.LegMetrics, len(uniq))
	for rows.Next() {
		var key string
		var meters, seconds int
		if err := rows.Scan(&key, &meters, &seconds); err != nil {
			return nil, fmt.Errorf("get leg cache: scan rows: %w", err)
		}
		out[key] = ports.LegMetrics{
			DistanceMeters:  meters,
			DurationSeconds: seconds,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get leg cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many cached leg metrics for a single routing mode.
func (s *SQLLegCache) PutMany(ctx context.Context, mode string, legs map[string]ports.LegMetrics) error {
	if s.DB == nil {
		return errors.New("leg cache: db is nil")
	}

	if mode == "" {
		return errors.New("insert leg cache: mode must not be empty")
	}

	if len(legs) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert leg cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO leg_cache (mode, cache_key, distance_meters, duration_seconds)
    VALUES ($1, $2, $3, $4)
	ON CONFLICT (mode, cache_key) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds;
	`)
	if err != nil {
		return fmt.Errorf("insert leg cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for key, m := range legs {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("insert leg cache: empty leg key")
		}

		if _, err := stmt.ExecContext(ctx, mode, key, m.DistanceMeters, m.DurationSeconds); err != nil {
			return fmt.Errorf("insert leg cache key=%q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert leg cache commit: %w", err)
	}

	return nil
}
