package state

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-dispatch-service/internal/domain"
)

type memBackend struct {
	data     []byte
	saves    int
	failSave bool
}

func (m *memBackend) Load(ctx context.Context) ([]byte, bool, error) {
	if m.data == nil {
		return nil, false, nil
	}
	return m.data, true, nil
}

func (m *memBackend) Save(ctx context.Context, data []byte) error {
	if m.failSave {
		return errors.New("disk full")
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

func TestNewStoreFreshInstall(t *testing.T) {
	store, err := NewStore(context.Background(), &memBackend{})
	require.NoError(t, err)

	snap := store.Snapshot()
	assert.Empty(t, snap.WorkOrders)
	assert.Empty(t, snap.Trips)
	assert.Equal(t, domain.DefaultTripSettings(), snap.Settings)
	assert.Equal(t, domain.DefaultFinancialGoals(), snap.Goals)
}

func TestNewStoreMergesPartialBlob(t *testing.T) {
	// A blob from an older build that predates settings and goals.
	blob := []byte(`{"work_orders":[{"id":"wo-1","status":"Pending","address":"12 Elm St"}]}`)
	store, err := NewStore(context.Background(), &memBackend{data: blob})
	require.NoError(t, err)

	order, ok := store.WorkOrder("wo-1")
	require.True(t, ok)
	assert.Equal(t, "12 Elm St", order.Address)

	// Absent top-level fields pick up defaults.
	assert.Equal(t, domain.DefaultTripSettings(), store.Settings())
	assert.Equal(t, domain.DefaultFinancialGoals(), store.Goals())
	assert.NotNil(t, store.Trips())
}

func TestUnassignedWorkOrdersFilter(t *testing.T) {
	backend := &memBackend{}
	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.PutWorkOrder(ctx, domain.WorkOrder{ID: "free", Status: domain.OrderPending}))
	require.NoError(t, store.PutWorkOrder(ctx, domain.WorkOrder{ID: "on-open-trip", Status: domain.OrderPending}))
	require.NoError(t, store.PutWorkOrder(ctx, domain.WorkOrder{ID: "already-active", Status: domain.OrderActive}))
	require.NoError(t, store.PutWorkOrder(ctx, domain.WorkOrder{ID: "on-done-trip", Status: domain.OrderPending}))

	require.NoError(t, store.PutTrip(ctx, domain.Trip{
		ID:     "t1",
		Status: domain.TripPlanned,
		Stops:  []domain.TripStop{{WorkOrderID: "on-open-trip"}},
	}))
	require.NoError(t, store.PutTrip(ctx, domain.Trip{
		ID:     "t2",
		Status: domain.TripCompleted,
		Stops:  []domain.TripStop{{WorkOrderID: "on-done-trip"}},
	}))

	ids := []string{}
	for _, o := range store.UnassignedWorkOrders() {
		ids = append(ids, o.ID)
	}
	assert.ElementsMatch(t, []string{"free", "on-done-trip"}, ids)
}

func TestPutWorkOrderWritesThrough(t *testing.T) {
	backend := &memBackend{}
	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)

	require.NoError(t, store.PutWorkOrder(context.Background(), domain.WorkOrder{ID: "wo-1", Address: "1 Main"}))
	assert.Equal(t, 1, backend.saves)

	// A second store over the same backend sees the write.
	reloaded, err := NewStore(context.Background(), backend)
	require.NoError(t, err)
	order, ok := reloaded.WorkOrder("wo-1")
	require.True(t, ok)
	assert.Equal(t, "1 Main", order.Address)
}

func TestFailedSaveRestoresPriorState(t *testing.T) {
	backend := &memBackend{}
	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)
	require.NoError(t, store.PutTrip(context.Background(), domain.Trip{ID: "t1", Status: domain.TripPlanned}))

	backend.failSave = true
	err = store.PutTrip(context.Background(), domain.Trip{ID: "t2", Status: domain.TripPlanned})
	require.Error(t, err)

	_, ok := store.Trip("t2")
	assert.False(t, ok, "failed save must not leave t2 in memory")
	_, ok = store.Trip("t1")
	assert.True(t, ok)
}

func TestCountTripNumberPrefix(t *testing.T) {
	backend := &memBackend{}
	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.PutTrip(ctx, domain.Trip{ID: "a", Number: "082426-1"}))
	require.NoError(t, store.PutTrip(ctx, domain.Trip{ID: "b", Number: "082426-2"}))
	require.NoError(t, store.PutTrip(ctx, domain.Trip{ID: "c", Number: "090126-1"}))

	assert.Equal(t, 2, store.CountTripNumberPrefix("082426"))
	assert.Equal(t, 1, store.CountTripNumberPrefix("090126"))
	assert.Equal(t, 0, store.CountTripNumberPrefix("0824"))
}

func TestSnapshotIsIsolated(t *testing.T) {
	backend := &memBackend{}
	store, err := NewStore(context.Background(), backend)
	require.NoError(t, err)
	require.NoError(t, store.PutTrip(context.Background(), domain.Trip{
		ID:    "t1",
		Stops: []domain.TripStop{{WorkOrderID: "wo-1"}},
	}))

	snap := store.Snapshot()
	snap.Trips[0].Stops[0].WorkOrderID = "tampered"
	snap.Trips[0].Status = domain.TripActive

	trip, ok := store.Trip("t1")
	require.True(t, ok)
	assert.Equal(t, "wo-1", trip.Stops[0].WorkOrderID)
	assert.NotEqual(t, domain.TripActive, trip.Status)
}

func TestDeleteTripMissing(t *testing.T) {
	store, err := NewStore(context.Background(), &memBackend{})
	require.NoError(t, err)

	err = store.DeleteTrip(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
