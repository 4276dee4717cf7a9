package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/state"
)

type memStateStore struct{ data []byte }

func (m *memStateStore) Load(context.Context) ([]byte, bool, error) {
	if m.data == nil {
		return nil, false, nil
	}
	return m.data, true, nil
}

func (m *memStateStore) Save(_ context.Context, data []byte) error {
	m.data = append([]byte(nil), data...)
	return nil
}

type fakePublisher struct {
	subjects []string
	payloads []any
}

func (f *fakePublisher) Publish(_ context.Context, subject string, payload any) error {
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, payload)
	return nil
}

var tripDay = time.Date(2026, time.August, 24, 8, 0, 0, 0, time.UTC)

func lifecycleFixture(t *testing.T) (*Lifecycle, *state.Store, *fakePublisher) {
	t.Helper()
	ctx := context.Background()

	store, err := state.NewStore(ctx, &memStateStore{})
	require.NoError(t, err)

	for _, o := range []domain.WorkOrder{
		{ID: "wo-1", OrderNumber: "1001", TypeName: "Sprinkler Check", Address: "1 Oak St", BaseRate: 150, MiscFee: 25, Status: domain.OrderPending},
		{ID: "wo-2", OrderNumber: "1002", TypeName: "Sprinkler Check", Address: "2 Elm St", BaseRate: 120, MiscFee: 30, Status: domain.OrderPending},
	} {
		require.NoError(t, store.PutWorkOrder(ctx, o))
	}

	events := &fakePublisher{}
	lc := NewLifecycle(store, events)
	lc.now = func() time.Time { return tripDay }
	return lc, store, events
}

func testSuggestion() domain.SuggestedTrip {
	return domain.SuggestedTrip{
		Name: "North loop",
		Stops: []domain.SuggestedStop{
			{WorkOrderID: "wo-1", Address: "1 Oak St", ServiceTimeMinutes: 45},
			{WorkOrderID: "wo-2", Address: "2 Elm St", ServiceTimeMinutes: 45},
		},
		TotalMiles:      42.5,
		EstimatedPayout: 325,
		StartLocation:   "10 Depot Rd",
		EndLocation:     "10 Depot Rd",
	}
}

func TestApproveAssignsAdditiveNumber(t *testing.T) {
	lc, store, events := lifecycleFixture(t)
	ctx := context.Background()

	// Three trips already issued today.
	for i := 1; i <= 3; i++ {
		require.NoError(t, store.PutTrip(ctx, domain.Trip{
			ID:     fmt.Sprintf("trip-%d", i),
			Number: domain.FormatTripNumber(tripDay, i),
			Status: domain.TripCompleted,
		}))
	}

	trip, err := lc.Approve(ctx, testSuggestion())
	require.NoError(t, err)

	assert.Equal(t, "082426-4", trip.Number)
	assert.Equal(t, domain.TripPlanned, trip.Status)
	assert.Equal(t, []string{"wo-1", "wo-2"}, trip.WorkOrderIDs())
	require.NotNil(t, trip.TotalMiles)
	assert.Equal(t, 42.5, *trip.TotalMiles)
	require.NotNil(t, trip.EstimatedPayout)
	assert.Equal(t, 325.0, *trip.EstimatedPayout)

	stored, ok := store.Trip(trip.ID)
	require.True(t, ok)
	assert.Equal(t, trip.Number, stored.Number)

	assert.Equal(t, []string{SubjectTripPlanned}, events.subjects)

	// Approval does not touch the work orders.
	o, _ := store.WorkOrder("wo-1")
	assert.Equal(t, domain.OrderPending, o.Status)
}

func TestTripRunScenario(t *testing.T) {
	lc, store, events := lifecycleFixture(t)
	ctx := context.Background()

	trip, err := lc.Approve(ctx, testSuggestion())
	require.NoError(t, err)

	t0 := tripDay
	lc.now = func() time.Time { return t0 }
	trip, err = lc.Start(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripActive, trip.Status)
	require.NotNil(t, trip.StartTime)
	assert.True(t, trip.StartTime.Equal(t0))

	for _, id := range []string{"wo-1", "wo-2"} {
		o, ok := store.WorkOrder(id)
		require.True(t, ok)
		assert.Equal(t, domain.OrderActive, o.Status)
	}

	// First stop closed out mid-route.
	lc.now = func() time.Time { return t0.Add(90 * time.Minute) }
	trip, err = lc.CompleteStop(ctx, trip.ID, "wo-1", 1800)
	require.NoError(t, err)
	assert.Equal(t, domain.TripActive, trip.Status)

	stop := trip.FindStop("wo-1")
	require.NotNil(t, stop)
	assert.True(t, stop.IsCompleted)
	assert.Equal(t, 1800, stop.TimeSpentSeconds)

	o, _ := store.WorkOrder("wo-1")
	assert.Equal(t, domain.OrderCompleted, o.Status)
	require.NotNil(t, o.CompletionDate)
	o, _ = store.WorkOrder("wo-2")
	assert.Equal(t, domain.OrderActive, o.Status)

	// The last stop finishing does not finish the trip.
	trip, err = lc.CompleteStop(ctx, trip.ID, "wo-2", 2400)
	require.NoError(t, err)
	assert.Equal(t, domain.TripActive, trip.Status)

	t1 := t0.Add(4 * time.Hour)
	lc.now = func() time.Time { return t1 }
	trip, err = lc.Stop(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripCompleted, trip.Status)
	require.NotNil(t, trip.EndTime)
	assert.True(t, trip.EndTime.Equal(t1))
	assert.Equal(t, 14400, trip.TotalTimeSeconds)

	assert.Equal(t, []string{SubjectTripPlanned, SubjectTripStarted, SubjectTripCompleted}, events.subjects)
}

func TestLifecycleTransitionGuards(t *testing.T) {
	lc, _, _ := lifecycleFixture(t)
	ctx := context.Background()

	_, err := lc.Start(ctx, "missing")
	require.ErrorIs(t, err, state.ErrNotFound)

	trip, err := lc.Approve(ctx, testSuggestion())
	require.NoError(t, err)

	_, err = lc.Stop(ctx, trip.ID)
	require.ErrorIs(t, err, ErrConflict)
	_, err = lc.CompleteStop(ctx, trip.ID, "wo-1", 60)
	require.ErrorIs(t, err, ErrConflict)

	_, err = lc.Start(ctx, trip.ID)
	require.NoError(t, err)
	_, err = lc.Start(ctx, trip.ID)
	require.ErrorIs(t, err, ErrConflict)

	_, err = lc.CompleteStop(ctx, trip.ID, "wo-9", 60)
	require.ErrorIs(t, err, state.ErrNotFound)

	require.ErrorIs(t, lc.Delete(ctx, trip.ID), ErrConflict)

	_, err = lc.Stop(ctx, trip.ID)
	require.NoError(t, err)
	_, err = lc.Stop(ctx, trip.ID)
	require.ErrorIs(t, err, ErrConflict)
}

func TestDeleteRemovesPlannedTripOnly(t *testing.T) {
	lc, store, events := lifecycleFixture(t)
	ctx := context.Background()

	trip, err := lc.Approve(ctx, testSuggestion())
	require.NoError(t, err)

	require.NoError(t, lc.Delete(ctx, trip.ID))
	_, ok := store.Trip(trip.ID)
	assert.False(t, ok)

	// Planning never changed the orders, so deleting has nothing to revert.
	o, _ := store.WorkOrder("wo-1")
	assert.Equal(t, domain.OrderPending, o.Status)

	assert.Equal(t, []string{SubjectTripPlanned, SubjectTripDeleted}, events.subjects)

	require.ErrorIs(t, lc.Delete(ctx, "missing"), state.ErrNotFound)
}

func TestSavePreservesCompletionRecords(t *testing.T) {
	lc, store, _ := lifecycleFixture(t)
	ctx := context.Background()

	trip, err := lc.Approve(ctx, testSuggestion())
	require.NoError(t, err)
	trip, err = lc.Start(ctx, trip.ID)
	require.NoError(t, err)
	_, err = lc.CompleteStop(ctx, trip.ID, "wo-1", 1800)
	require.NoError(t, err)

	final := domain.SuggestedTrip{
		Name: "North loop (reworked)",
		Stops: []domain.SuggestedStop{
			{WorkOrderID: "wo-2", Address: "2 Elm St", ServiceTimeMinutes: 45},
			{WorkOrderID: "wo-1", Address: "1 Oak St", ServiceTimeMinutes: 45},
		},
		TotalMiles:      38.0,
		EstimatedPayout: 325,
		StartLocation:   "10 Depot Rd",
		EndLocation:     "99 Yard Ave",
	}

	saved, err := lc.Save(ctx, trip.ID, final)
	require.NoError(t, err)

	assert.Equal(t, "North loop (reworked)", saved.Name)
	assert.Equal(t, domain.TripActive, saved.Status)
	require.NotNil(t, saved.StartTime)
	assert.Equal(t, "99 Yard Ave", saved.EndLocation)
	assert.Equal(t, []string{"wo-2", "wo-1"}, saved.WorkOrderIDs())

	done := saved.FindStop("wo-1")
	require.NotNil(t, done)
	assert.True(t, done.IsCompleted)
	assert.Equal(t, 1800, done.TimeSpentSeconds)

	open := saved.FindStop("wo-2")
	require.NotNil(t, open)
	assert.False(t, open.IsCompleted)

	stored, ok := store.Trip(trip.ID)
	require.True(t, ok)
	assert.Equal(t, saved.WorkOrderIDs(), stored.WorkOrderIDs())

	_, err = lc.Save(ctx, "missing", final)
	require.ErrorIs(t, err, state.ErrNotFound)
}

func TestNilPublisherSkipsEvents(t *testing.T) {
	ctx := context.Background()
	store, err := state.NewStore(ctx, &memStateStore{})
	require.NoError(t, err)
	require.NoError(t, store.PutWorkOrder(ctx, domain.WorkOrder{ID: "wo-1", Status: domain.OrderPending}))

	lc := NewLifecycle(store, nil)
	lc.now = func() time.Time { return tripDay }

	trip, err := lc.Approve(ctx, domain.SuggestedTrip{
		Stops:         []domain.SuggestedStop{{WorkOrderID: "wo-1"}},
		StartLocation: "10 Depot Rd",
		EndLocation:   "10 Depot Rd",
	})
	require.NoError(t, err)
	assert.Equal(t, "Trip 082426-1", trip.Name)
}
