package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/state"
)

func TestFileStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStateStore(path)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "missing file must read as a fresh install")

	blob := []byte(`{"work_orders":[]} `)
	require.NoError(t, store.Save(ctx, blob))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, blob, got)

	// No temp file is left behind after a successful save.
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, store.Save(ctx, []byte(`{}`)))
	got, _, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), got)
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, InitSchema(db))
	return db
}

func TestSqliteStateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSqliteStateStore(openTestDB(t))

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, []byte(`{"v":1}`)))
	require.NoError(t, store.Save(ctx, []byte(`{"v":2}`)))

	got, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(got))
}

func TestInitSchemaIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, InitSchema(db))
}

func writeSeed(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestSeedFromJSON(t *testing.T) {
	ctx := context.Background()
	backend := NewSqliteStateStore(openTestDB(t))

	seed := SeedFile{
		WorkOrderTypes: []domain.WorkOrderType{
			{Name: "Sprinkler Check", DefaultBaseRate: 150, ServiceTimeSeconds: 1800},
		},
		WorkOrders: []domain.WorkOrder{
			{ID: "wo-1", OrderNumber: "1001", TypeName: "Sprinkler Check", Address: "1 Oak St"},
			{ID: "wo-2", OrderNumber: "1002", TypeName: "Sprinkler Check", Address: "2 Elm St", Status: domain.OrderActive},
		},
	}

	require.NoError(t, SeedFromJSON(ctx, backend, writeSeed(t, seed)))

	store, err := state.NewStore(ctx, backend)
	require.NoError(t, err)

	snap := store.Snapshot()
	require.Len(t, snap.WorkOrders, 2)
	assert.Equal(t, domain.OrderPending, snap.WorkOrders[0].Status, "empty status defaults to Pending")
	assert.Equal(t, domain.OrderActive, snap.WorkOrders[1].Status)
	require.Len(t, snap.WorkOrderTypes, 1)
	assert.Equal(t, domain.DefaultTripSettings(), snap.Settings)
}

func TestSeedFromJSONMergesExistingState(t *testing.T) {
	ctx := context.Background()
	backend := NewSqliteStateStore(openTestDB(t))

	first := SeedFile{
		WorkOrders: []domain.WorkOrder{
			{ID: "wo-1", Address: "1 Oak St", ClientName: "Original"},
		},
	}
	require.NoError(t, SeedFromJSON(ctx, backend, writeSeed(t, first)))

	second := SeedFile{
		WorkOrders: []domain.WorkOrder{
			{ID: "wo-1", Address: "1 Oak St", ClientName: "Updated"},
			{ID: "wo-2", Address: "2 Elm St"},
		},
	}
	require.NoError(t, SeedFromJSON(ctx, backend, writeSeed(t, second)))

	store, err := state.NewStore(ctx, backend)
	require.NoError(t, err)

	snap := store.Snapshot()
	require.Len(t, snap.WorkOrders, 2)
	assert.Equal(t, "Updated", snap.WorkOrders[0].ClientName)
}

func TestSeedFromJSONValidation(t *testing.T) {
	ctx := context.Background()
	backend := NewSqliteStateStore(openTestDB(t))

	cases := []struct {
		name string
		seed SeedFile
	}{
		{"empty order id", SeedFile{WorkOrders: []domain.WorkOrder{{ID: " ", Address: "1 Oak St"}}}},
		{"duplicate order id", SeedFile{WorkOrders: []domain.WorkOrder{
			{ID: "wo-1", Address: "1 Oak St"},
			{ID: "wo-1", Address: "2 Elm St"},
		}}},
		{"empty address", SeedFile{WorkOrders: []domain.WorkOrder{{ID: "wo-1", Address: ""}}}},
		{"unnamed type", SeedFile{WorkOrderTypes: []domain.WorkOrderType{{Name: ""}}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Error(t, SeedFromJSON(ctx, backend, writeSeed(t, tc.seed)))
		})
	}

	require.Error(t, SeedFromJSON(ctx, backend, filepath.Join(t.TempDir(), "absent.json")))
}
