package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/ports"
	"field-dispatch-service/internal/state"
)

// ErrConflict marks a lifecycle call against a trip whose current status
// does not allow the transition.
var ErrConflict = errors.New("conflicting trip status")

// Subjects for trip lifecycle events.
const (
	SubjectTripPlanned   = "dispatch.trip.planned"
	SubjectTripStarted   = "dispatch.trip.started"
	SubjectTripCompleted = "dispatch.trip.completed"
	SubjectTripDeleted   = "dispatch.trip.deleted"
)

// Lifecycle drives committed trips through Planning/Planned, Active, and
// Completed, applying the work order side effects of each transition. All
// writes go through the shared store; a nil event publisher disables
// publishing without changing any transition.
type Lifecycle struct {
	store  *state.Store
	events ports.EventPublisher
	now    func() time.Time
}

func NewLifecycle(store *state.Store, events ports.EventPublisher) *Lifecycle {
	return &Lifecycle{store: store, events: events, now: time.Now}
}

// tripEvent is the JSON payload published on trip lifecycle subjects.
type tripEvent struct {
	TripID     string    `json:"trip_id"`
	Number     string    `json:"number"`
	Status     string    `json:"status"`
	WorkOrders []string  `json:"work_orders"`
	At         time.Time `json:"at"`
}

// publish delivers a lifecycle event on a best-effort basis. Broker
// trouble is logged and swallowed; the transition has already been
// persisted by the time this runs.
func (l *Lifecycle) publish(ctx context.Context, subject string, trip domain.Trip) {
	if l.events == nil {
		return
	}
	evt := tripEvent{
		TripID:     trip.ID,
		Number:     trip.Number,
		Status:     string(trip.Status),
		WorkOrders: trip.WorkOrderIDs(),
		At:         l.now(),
	}
	if err := l.events.Publish(ctx, subject, evt); err != nil {
		log.Printf("event publish failed: subject=%s trip=%s: %v", subject, trip.ID, err)
	}
}

// Approve materializes an accepted suggestion as a persisted trip in
// Planned. The trip number is date-prefixed and additive: N is one past
// the count of trips already carrying today's prefix.
func (l *Lifecycle) Approve(ctx context.Context, sg domain.SuggestedTrip) (domain.Trip, error) {
	now := l.now()
	seq := l.store.CountTripNumberPrefix(domain.TripDatePrefix(now)) + 1

	stops := make([]domain.TripStop, 0, len(sg.Stops))
	for _, st := range sg.Stops {
		stops = append(stops, domain.TripStop{WorkOrderID: st.WorkOrderID})
	}

	miles := sg.TotalMiles
	payout := sg.EstimatedPayout
	trip := domain.Trip{
		ID:              uuid.NewString(),
		Name:            sg.Name,
		Number:          domain.FormatTripNumber(now, seq),
		Stops:           stops,
		Status:          domain.TripPlanned,
		StartLocation:   sg.StartLocation,
		EndLocation:     sg.EndLocation,
		TotalMiles:      &miles,
		EstimatedPayout: &payout,
	}
	if trip.Name == "" {
		trip.Name = "Trip " + trip.Number
	}

	if err := l.store.PutTrip(ctx, trip); err != nil {
		return domain.Trip{}, err
	}
	log.Printf("trip approved: id=%s number=%s stops=%d", trip.ID, trip.Number, len(trip.Stops))
	l.publish(ctx, SubjectTripPlanned, trip)
	return trip, nil
}

// Save merges an edited working copy back into its persisted trip. Stops
// whose work order survives the edit keep their completion record; status
// and start/stop timestamps are untouched, so an active trip can be
// reshuffled mid-route.
func (l *Lifecycle) Save(ctx context.Context, tripID string, final domain.SuggestedTrip) (domain.Trip, error) {
	trip, ok := l.store.Trip(tripID)
	if !ok {
		return domain.Trip{}, fmt.Errorf("save trip %q: %w", tripID, state.ErrNotFound)
	}

	prevStops := make(map[string]domain.TripStop, len(trip.Stops))
	for _, st := range trip.Stops {
		prevStops[st.WorkOrderID] = st
	}

	stops := make([]domain.TripStop, 0, len(final.Stops))
	for _, st := range final.Stops {
		next := domain.TripStop{WorkOrderID: st.WorkOrderID}
		if prev, ok := prevStops[st.WorkOrderID]; ok {
			next.IsCompleted = prev.IsCompleted
			next.TimeSpentSeconds = prev.TimeSpentSeconds
		}
		stops = append(stops, next)
	}

	if final.Name != "" {
		trip.Name = final.Name
	}
	trip.Stops = stops
	trip.StartLocation = final.StartLocation
	trip.EndLocation = final.EndLocation
	miles := final.TotalMiles
	trip.TotalMiles = &miles
	payout := final.EstimatedPayout
	trip.EstimatedPayout = &payout

	if err := l.store.PutTrip(ctx, trip); err != nil {
		return domain.Trip{}, err
	}
	log.Printf("trip saved: id=%s number=%s stops=%d", trip.ID, trip.Number, len(trip.Stops))
	return trip, nil
}

// Start begins the route. Allowed from Planning or Planned; the trip's
// work orders go Active together with it.
func (l *Lifecycle) Start(ctx context.Context, tripID string) (domain.Trip, error) {
	trip, ok := l.store.Trip(tripID)
	if !ok {
		return domain.Trip{}, fmt.Errorf("start trip %q: %w", tripID, state.ErrNotFound)
	}
	if !trip.Startable() {
		return domain.Trip{}, fmt.Errorf("start trip %q: status %s: %w", tripID, trip.Status, ErrConflict)
	}

	now := l.now()
	trip.Status = domain.TripActive
	trip.StartTime = &now

	orders := make([]domain.WorkOrder, 0, len(trip.Stops))
	for _, st := range trip.Stops {
		o, ok := l.store.WorkOrder(st.WorkOrderID)
		if !ok {
			continue
		}
		o.Status = domain.OrderActive
		orders = append(orders, o)
	}

	if err := l.store.ApplyTripUpdate(ctx, trip, orders); err != nil {
		return domain.Trip{}, err
	}
	log.Printf("trip started: id=%s number=%s orders=%d", trip.ID, trip.Number, len(orders))
	l.publish(ctx, SubjectTripStarted, trip)
	return trip, nil
}

// Stop ends an active route. Total time is frozen as the wall-clock span
// between start and stop. Per-stop records and their work orders are left
// exactly as CompleteStop last wrote them; an unfinished stop stays
// unfinished.
func (l *Lifecycle) Stop(ctx context.Context, tripID string) (domain.Trip, error) {
	trip, ok := l.store.Trip(tripID)
	if !ok {
		return domain.Trip{}, fmt.Errorf("stop trip %q: %w", tripID, state.ErrNotFound)
	}
	if trip.Status != domain.TripActive {
		return domain.Trip{}, fmt.Errorf("stop trip %q: status %s: %w", tripID, trip.Status, ErrConflict)
	}

	now := l.now()
	trip.Status = domain.TripCompleted
	trip.EndTime = &now
	if trip.StartTime != nil {
		trip.TotalTimeSeconds = int(now.Sub(*trip.StartTime).Seconds())
	}

	if err := l.store.PutTrip(ctx, trip); err != nil {
		return domain.Trip{}, err
	}
	log.Printf("trip completed: id=%s number=%s total=%ds", trip.ID, trip.Number, trip.TotalTimeSeconds)
	l.publish(ctx, SubjectTripCompleted, trip)
	return trip, nil
}

// CompleteStop closes out one stop on an active trip. The work order
// completes with it. The trip itself stays Active even when this was the
// last open stop; only Stop ends a trip.
func (l *Lifecycle) CompleteStop(ctx context.Context, tripID, workOrderID string, timeSpentSeconds int) (domain.Trip, error) {
	trip, ok := l.store.Trip(tripID)
	if !ok {
		return domain.Trip{}, fmt.Errorf("complete stop on trip %q: %w", tripID, state.ErrNotFound)
	}
	if trip.Status != domain.TripActive {
		return domain.Trip{}, fmt.Errorf("complete stop on trip %q: status %s: %w", tripID, trip.Status, ErrConflict)
	}
	stop := trip.FindStop(workOrderID)
	if stop == nil {
		return domain.Trip{}, fmt.Errorf("complete stop: work order %q is not on trip %q: %w", workOrderID, tripID, state.ErrNotFound)
	}

	if timeSpentSeconds < 0 {
		timeSpentSeconds = 0
	}
	stop.IsCompleted = true
	stop.TimeSpentSeconds = timeSpentSeconds

	var orders []domain.WorkOrder
	if o, ok := l.store.WorkOrder(workOrderID); ok {
		now := l.now()
		o.Status = domain.OrderCompleted
		o.CompletionDate = &now
		orders = append(orders, o)
	}

	if err := l.store.ApplyTripUpdate(ctx, trip, orders); err != nil {
		return domain.Trip{}, err
	}
	log.Printf("stop completed: trip=%s order=%s spent=%ds", tripID, workOrderID, timeSpentSeconds)
	return trip, nil
}

// Delete removes a trip that never ran. Work order statuses are not
// touched; planning never changed them, so there is nothing to revert.
func (l *Lifecycle) Delete(ctx context.Context, tripID string) error {
	trip, ok := l.store.Trip(tripID)
	if !ok {
		return fmt.Errorf("delete trip %q: %w", tripID, state.ErrNotFound)
	}
	if !trip.Deletable() {
		return fmt.Errorf("delete trip %q: status %s: %w", tripID, trip.Status, ErrConflict)
	}

	if err := l.store.DeleteTrip(ctx, tripID); err != nil {
		return err
	}
	log.Printf("trip deleted: id=%s number=%s", trip.ID, trip.Number)
	l.publish(ctx, SubjectTripDeleted, trip)
	return nil
}
