package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/ports"
	"field-dispatch-service/internal/state"
)

// Initialize the database schema. The DDL sticks to the dialect both
// backends share, so the same statements run against SQLite and Postgres.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createAppStateQuery := `
	CREATE TABLE IF NOT EXISTS app_state (
		id INTEGER PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	`

	createLegCacheQuery := `
	CREATE TABLE IF NOT EXISTS leg_cache (
        mode TEXT NOT NULL,
        cache_key TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        PRIMARY KEY (mode, cache_key)
    );
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
        address TEXT PRIMARY KEY,
        lon DOUBLE PRECISION NOT NULL,
        lat DOUBLE PRECISION NOT NULL
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_leg_cache_mode
    ON leg_cache(mode);
	`

	statements := []string{
		createAppStateQuery,
		createLegCacheQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// SeedFile is the JSON shape the seeding tool consumes: a starting pool of
// work order types and orders, plus optional planning settings.
type SeedFile struct {
	WorkOrderTypes []domain.WorkOrderType `json:"work_order_types"`
	WorkOrders     []domain.WorkOrder     `json:"work_orders"`
	TripSettings   *domain.TripSettings   `json:"trip_settings,omitempty"`
	FinancialGoals *domain.FinancialGoals `json:"financial_goals,omitempty"`
}

// Populate the state store from a JSON seed file. Existing state is merged
// into, not replaced: orders and types are upserted by id/name, trips are
// untouched, so re-running the tool is safe.
func SeedFromJSON(ctx context.Context, backend ports.StateStore, jsonPath string) error {
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed state: read %q: %w", jsonPath, err)
	}

	var seed SeedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("seed state: parse json: %w", err)
	}

	for i, t := range seed.WorkOrderTypes {
		if strings.TrimSpace(t.Name) == "" {
			return fmt.Errorf("seed state: work order type at index %d: name cannot be empty", i+1)
		}
		if t.ServiceTimeSeconds < 0 {
			return fmt.Errorf("seed state: work order type %q: negative service time", t.Name)
		}
	}

	seenIDs := make(map[string]bool, len(seed.WorkOrders))
	for i := range seed.WorkOrders {
		o := &seed.WorkOrders[i]
		if strings.TrimSpace(o.ID) == "" {
			return fmt.Errorf("seed state: work order at index %d: id cannot be empty", i+1)
		}
		if seenIDs[o.ID] {
			return fmt.Errorf("seed state: duplicate work order id %q", o.ID)
		}
		seenIDs[o.ID] = true

		if strings.TrimSpace(o.Address) == "" {
			return fmt.Errorf("seed state: work order %q: address cannot be empty", o.ID)
		}
		if o.Status == "" {
			o.Status = domain.OrderPending
		}
	}

	st := state.Defaults()
	if data, ok, err := backend.Load(ctx); err != nil {
		return fmt.Errorf("seed state: load existing: %w", err)
	} else if ok {
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("seed state: parse existing blob: %w", err)
		}
	}

	for _, t := range seed.WorkOrderTypes {
		st.WorkOrderTypes = upsertType(st.WorkOrderTypes, t)
	}
	for _, o := range seed.WorkOrders {
		st.WorkOrders = upsertOrder(st.WorkOrders, o)
	}
	if seed.TripSettings != nil {
		st.Settings = *seed.TripSettings
	}
	if seed.FinancialGoals != nil {
		st.Goals = *seed.FinancialGoals
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("seed state: marshal: %w", err)
	}
	if err := backend.Save(ctx, data); err != nil {
		return fmt.Errorf("seed state: save: %w", err)
	}

	return nil
}

func upsertType(types []domain.WorkOrderType, t domain.WorkOrderType) []domain.WorkOrderType {
	for i := range types {
		if strings.EqualFold(types[i].Name, t.Name) {
			types[i] = t
			return types
		}
	}
	return append(types, t)
}

func upsertOrder(orders []domain.WorkOrder, o domain.WorkOrder) []domain.WorkOrder {
	for i := range orders {
		if orders[i].ID == o.ID {
			orders[i] = o
			return orders
		}
	}
	return append(orders, o)
}
