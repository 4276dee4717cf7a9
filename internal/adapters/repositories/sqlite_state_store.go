package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLite-backed variant of the single-row state blob store, for local-mode
// runs that want the caches and state in one file.
type SqliteStateStore struct {
	DB *sql.DB
}

func NewSqliteStateStore(db *sql.DB) *SqliteStateStore {
	return &SqliteStateStore{DB: db}
}

// Load fetches the stored blob. An empty table is a fresh install.
func (s *SqliteStateStore) Load(ctx context.Context) ([]byte, bool, error) {
	if s.DB == nil {
		return nil, false, errors.New("state store: db is nil")
	}

	q := `
	SELECT data
    FROM app_state
    WHERE id = 1;
	`

	var data []byte
	err := s.DB.QueryRowContext(ctx, q).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load state: query app_state table: %w", err)
	}
	return data, true, nil
}

// Save upserts the singleton state row.
func (s *SqliteStateStore) Save(ctx context.Context, data []byte) error {
	if s.DB == nil {
		return errors.New("state store: db is nil")
	}

	q := `
	INSERT OR REPLACE INTO app_state (id, data, updated_at)
    VALUES (1, ?, ?);
	`

	if _, err := s.DB.ExecContext(ctx, q, data, time.Now().UTC()); err != nil {
		return fmt.Errorf("save state: upsert app_state row: %w", err)
	}
	return nil
}
