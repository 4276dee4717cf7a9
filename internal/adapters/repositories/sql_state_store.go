package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"field-dispatch-service/internal/platform/obs"
)

// SQLStateStore keeps the application state blob in a single Postgres row.
// The backend never looks inside the blob; schema evolution is the state
// package's problem.
type SQLStateStore struct {
	DB *sql.DB
}

func NewSQLStateStore(db *sql.DB) *SQLStateStore {
	return &SQLStateStore{DB: db}
}

// Load fetches the stored blob. An empty table is a fresh install.
func (s *SQLStateStore) Load(ctx context.Context) (_ []byte, _ bool, err error) {
	defer obs.Time(ctx, "state.store.Load")(&err)

	if s.DB == nil {
		return nil, false, errors.New("state store: db is nil")
	}

	q := `
	SELECT data
    FROM app_state
    WHERE id = 1;
	`

	var data []byte
	err = s.DB.QueryRowContext(ctx, q).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load state: query app_state table: %w", err)
	}
	return data, true, nil
}

// Save upserts the singleton state row.
func (s *SQLStateStore) Save(ctx context.Context, data []byte) (err error) {
	defer obs.Time(ctx, "state.store.Save")(&err)

	if s.DB == nil {
		return errors.New("state store: db is nil")
	}

	q := `
	INSERT INTO app_state (id, data, updated_at)
    VALUES (1, $1, $2)
	ON CONFLICT (id) DO UPDATE
	SET data = EXCLUDED.data,
		updated_at = EXCLUDED.updated_at;
	`

	if _, err := s.DB.ExecContext(ctx, q, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("save state: upsert app_state row: %w", err)
	}
	return nil
}
