package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/ports"
)

// ErrNotFound marks lookups of ids the state does not hold.
var ErrNotFound = errors.New("not found")

// Store is the single shared application state. All reads hand out copies
// and all writes go through the backend before returning, so callers never
// hold references into the live state and a restart loses nothing.
//
// Mutators replace slices instead of editing them in place; a failed save
// restores the prior struct value, which still points at the untouched
// arrays.
type Store struct {
	mu      sync.RWMutex
	st      AppState
	backend ports.StateStore
}

// NewStore loads the persisted blob, merging it over defaults. An absent
// blob is a fresh install, not an error.
func NewStore(ctx context.Context, backend ports.StateStore) (*Store, error) {
	st := Defaults()

	data, ok, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("state store: load: %w", err)
	}
	if ok {
		if err := json.Unmarshal(data, &st); err != nil {
			return nil, fmt.Errorf("state store: parse stored blob: %w", err)
		}
		st.normalize()
	}

	return &Store{st: st, backend: backend}, nil
}

// persist writes the whole blob through the backend. Callers hold mu.
func (s *Store) persist(ctx context.Context) error {
	data, err := json.MarshalIndent(s.st, "", "  ")
	if err != nil {
		return fmt.Errorf("state store: marshal: %w", err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		return fmt.Errorf("state store: save: %w", err)
	}
	return nil
}

// Snapshot returns a deep copy of the full state.
func (s *Store) Snapshot() AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return AppState{
		WorkOrders:     cloneOrders(s.st.WorkOrders),
		WorkOrderTypes: cloneTypes(s.st.WorkOrderTypes),
		Trips:          cloneTrips(s.st.Trips),
		Settings:       cloneSettings(s.st.Settings),
		Goals:          s.st.Goals,
	}
}

// WorkOrder returns a copy of the order with the given id.
func (s *Store) WorkOrder(id string) (domain.WorkOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.st.WorkOrders {
		if s.st.WorkOrders[i].ID == id {
			return cloneOrder(s.st.WorkOrders[i]), true
		}
	}
	return domain.WorkOrder{}, false
}

// WorkOrders returns copies of every order, optionally filtered by status.
func (s *Store) WorkOrders(status domain.WorkOrderStatus) []domain.WorkOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.WorkOrder, 0, len(s.st.WorkOrders))
	for i := range s.st.WorkOrders {
		if status != "" && s.st.WorkOrders[i].Status != status {
			continue
		}
		out = append(out, cloneOrder(s.st.WorkOrders[i]))
	}
	return out
}

// UnassignedWorkOrders returns plannable orders not already referenced by a
// non-completed trip. This filter is what keeps an order on at most one
// open trip.
func (s *Store) UnassignedWorkOrders() []domain.WorkOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assigned := make(map[string]struct{})
	for i := range s.st.Trips {
		if s.st.Trips[i].Status == domain.TripCompleted {
			continue
		}
		for _, stop := range s.st.Trips[i].Stops {
			assigned[stop.WorkOrderID] = struct{}{}
		}
	}

	out := make([]domain.WorkOrder, 0, len(s.st.WorkOrders))
	for i := range s.st.WorkOrders {
		o := s.st.WorkOrders[i]
		if !o.Plannable() {
			continue
		}
		if _, ok := assigned[o.ID]; ok {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	return out
}

// WorkOrderType returns the named type template.
func (s *Store) WorkOrderType(name string) (domain.WorkOrderType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.st.WorkOrderTypes {
		if strings.EqualFold(s.st.WorkOrderTypes[i].Name, name) {
			return cloneType(s.st.WorkOrderTypes[i]), true
		}
	}
	return domain.WorkOrderType{}, false
}

// WorkOrderTypes returns copies of every type template.
func (s *Store) WorkOrderTypes() []domain.WorkOrderType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTypes(s.st.WorkOrderTypes)
}

// OrderResolver returns a lookup closure over a point-in-time copy of the
// orders, shaped for the metrics engine.
func (s *Store) OrderResolver() func(id string) (domain.WorkOrder, bool) {
	s.mu.RLock()
	byID := make(map[string]domain.WorkOrder, len(s.st.WorkOrders))
	for i := range s.st.WorkOrders {
		byID[s.st.WorkOrders[i].ID] = cloneOrder(s.st.WorkOrders[i])
	}
	s.mu.RUnlock()

	return func(id string) (domain.WorkOrder, bool) {
		o, ok := byID[id]
		return o, ok
	}
}

// Trip returns a copy of the trip with the given id.
func (s *Store) Trip(id string) (domain.Trip, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.st.Trips {
		if s.st.Trips[i].ID == id {
			return cloneTrip(s.st.Trips[i]), true
		}
	}
	return domain.Trip{}, false
}

// Trips returns copies of every trip.
func (s *Store) Trips() []domain.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTrips(s.st.Trips)
}

// CountTripNumberPrefix counts trips whose number carries the given date
// prefix. Trip numbering is additive: completed and even same-day deleted
// trips that were renumbered never shrink the count below existing matches.
func (s *Store) CountTripNumberPrefix(prefix string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for i := range s.st.Trips {
		if strings.HasPrefix(s.st.Trips[i].Number, prefix+"-") {
			n++
		}
	}
	return n
}

// Settings returns a copy of the current trip settings.
func (s *Store) Settings() domain.TripSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.st.Settings)
}

// Goals returns the current financial goals.
func (s *Store) Goals() domain.FinancialGoals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.Goals
}

// PutWorkOrder inserts or replaces an order by id.
func (s *Store) PutWorkOrder(ctx context.Context, o domain.WorkOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.st
	s.st.WorkOrders = replaceOrder(s.st.WorkOrders, o)
	if err := s.persist(ctx); err != nil {
		s.st = prev
		return err
	}
	return nil
}

// PutWorkOrderType inserts or replaces a type template by name.
func (s *Store) PutWorkOrderType(ctx context.Context, t domain.WorkOrderType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.st
	next := make([]domain.WorkOrderType, 0, len(s.st.WorkOrderTypes)+1)
	found := false
	for i := range s.st.WorkOrderTypes {
		if strings.EqualFold(s.st.WorkOrderTypes[i].Name, t.Name) {
			next = append(next, cloneType(t))
			found = true
			continue
		}
		next = append(next, s.st.WorkOrderTypes[i])
	}
	if !found {
		next = append(next, cloneType(t))
	}
	s.st.WorkOrderTypes = next

	if err := s.persist(ctx); err != nil {
		s.st = prev
		return err
	}
	return nil
}

// PutTrip inserts or replaces a trip by id.
func (s *Store) PutTrip(ctx context.Context, t domain.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.st
	s.st.Trips = replaceTrip(s.st.Trips, t)
	if err := s.persist(ctx); err != nil {
		s.st = prev
		return err
	}
	return nil
}

// ApplyTripUpdate replaces a trip and any touched orders in one persisted
// write. Lifecycle transitions use this so a trip and its orders can never
// be saved half-updated.
func (s *Store) ApplyTripUpdate(ctx context.Context, t domain.Trip, orders []domain.WorkOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.st
	s.st.Trips = replaceTrip(s.st.Trips, t)
	for _, o := range orders {
		s.st.WorkOrders = replaceOrder(s.st.WorkOrders, o)
	}
	if err := s.persist(ctx); err != nil {
		s.st = prev
		return err
	}
	return nil
}

// DeleteTrip removes a trip by id.
func (s *Store) DeleteTrip(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.st.Trips {
		if s.st.Trips[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("delete trip %q: %w", id, ErrNotFound)
	}

	prev := s.st
	next := make([]domain.Trip, 0, len(s.st.Trips)-1)
	next = append(next, s.st.Trips[:idx]...)
	next = append(next, s.st.Trips[idx+1:]...)
	s.st.Trips = next

	if err := s.persist(ctx); err != nil {
		s.st = prev
		return err
	}
	return nil
}

// PutSettings replaces the trip settings.
func (s *Store) PutSettings(ctx context.Context, settings domain.TripSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.st
	s.st.Settings = cloneSettings(settings)
	if err := s.persist(ctx); err != nil {
		s.st = prev
		return err
	}
	return nil
}

// PutGoals replaces the financial goals.
func (s *Store) PutGoals(ctx context.Context, goals domain.FinancialGoals) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.st
	s.st.Goals = goals
	if err := s.persist(ctx); err != nil {
		s.st = prev
		return err
	}
	return nil
}

func replaceOrder(orders []domain.WorkOrder, o domain.WorkOrder) []domain.WorkOrder {
	next := make([]domain.WorkOrder, 0, len(orders)+1)
	found := false
	for i := range orders {
		if orders[i].ID == o.ID {
			next = append(next, cloneOrder(o))
			found = true
			continue
		}
		next = append(next, orders[i])
	}
	if !found {
		next = append(next, cloneOrder(o))
	}
	return next
}

func replaceTrip(trips []domain.Trip, t domain.Trip) []domain.Trip {
	next := make([]domain.Trip, 0, len(trips)+1)
	found := false
	for i := range trips {
		if trips[i].ID == t.ID {
			next = append(next, cloneTrip(t))
			found = true
			continue
		}
		next = append(next, trips[i])
	}
	if !found {
		next = append(next, cloneTrip(t))
	}
	return next
}
