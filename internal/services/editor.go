package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/platform/obs"
	"field-dispatch-service/internal/ports"
)

// EditorPhase is the session's recalculation state.
type EditorPhase string

const (
	// PhaseLoading covers normalization and the first recalculation.
	PhaseLoading EditorPhase = "loading"
	// PhaseReady means metrics are authoritative for the current stops.
	PhaseReady EditorPhase = "ready"
	// PhaseRecalculating means a route request is in flight. Edits are
	// still accepted; the newest edit's result wins.
	PhaseRecalculating EditorPhase = "recalculating"
	// PhaseError means the last recalculation failed. The previous good
	// metrics are retained; any further edit retries.
	PhaseError EditorPhase = "error"
)

// EditorMode distinguishes reviewing a planner candidate from editing a
// persisted trip. It decides what finalizing means downstream.
type EditorMode string

const (
	ModeReview EditorMode = "review"
	ModeEdit   EditorMode = "edit"
)

// ErrSessionClosed is returned by every operation after Finalize or Reject.
var ErrSessionClosed = errors.New("editor session is closed")

// EditorInput is a tagged union: exactly one of Trip or Candidate is set.
type EditorInput struct {
	Trip      *domain.Trip
	Candidate *domain.SuggestedTrip
}

// OrderResolver resolves a work order id against the shared store.
type OrderResolver func(id string) (domain.WorkOrder, bool)

// TypeResolver resolves a work order type by name.
type TypeResolver func(name string) (domain.WorkOrderType, bool)

// EditorDeps are the collaborator hooks a session needs. Resolver funcs
// keep sessions testable without a full store behind them.
type EditorDeps struct {
	Routes  ports.RouteProvider
	Planner *Planner
	Orders  OrderResolver
	Types   TypeResolver

	// Settings supplies the current constraints for re-optimization.
	// Defaults are used when nil.
	Settings func() (domain.TripSettings, domain.FinancialGoals)
}

// EditorSession owns one working trip during an interactive edit or review
// session. The working copy is session-local: nothing reaches the shared
// store until the caller materializes the finalized trip.
//
// Every structural edit returns a recalculation token. Callers run
// Recalculate with that token; a response whose token is no longer the
// newest is discarded, so an older in-flight recalculation can never
// overwrite a newer edit's result.
type EditorSession struct {
	ID   string
	Mode EditorMode

	deps EditorDeps

	mu      sync.Mutex
	phase   EditorPhase
	working domain.SuggestedTrip
	tripID  string
	lastErr string
	seq     uint64
	closed  bool
}

// NewEditorSession normalizes the input into an editable working copy and
// enters the loading phase. The returned session has one pending
// recalculation token (CurrentToken) the caller is expected to run.
func NewEditorSession(id string, input EditorInput, deps EditorDeps) (*EditorSession, error) {
	if deps.Routes == nil {
		return nil, errors.New("editor session needs a route provider")
	}
	if deps.Orders == nil || deps.Types == nil {
		return nil, errors.New("editor session needs order and type resolvers")
	}

	working, mode, tripID, err := normalizeInput(input, deps.Orders, deps.Types)
	if err != nil {
		return nil, err
	}

	return &EditorSession{
		ID:      id,
		Mode:    mode,
		deps:    deps,
		phase:   PhaseLoading,
		working: working,
		tripID:  tripID,
		seq:     1,
	}, nil
}

// normalizeInput converts either input shape into one canonical editable
// trip. Stops whose work order no longer exists are dropped here and never
// reappear; they come from legitimate deletes elsewhere in the app.
func normalizeInput(input EditorInput, orders OrderResolver, types TypeResolver) (domain.SuggestedTrip, EditorMode, string, error) {
	switch {
	case input.Trip != nil && input.Candidate != nil:
		return domain.SuggestedTrip{}, "", "", errors.New("editor input must be a trip or a suggestion, not both")
	case input.Trip == nil && input.Candidate == nil:
		return domain.SuggestedTrip{}, "", "", errors.New("editor input is empty")
	}

	if c := input.Candidate; c != nil {
		working := *c
		working.Stops = normalizeStops(c.CloneStops(), orders, types)
		working.ActualMinutes = cloneFloat(c.ActualMinutes)
		working.ActualMiles = cloneFloat(c.ActualMiles)
		working.ServiceMinutes = ServiceMinutes(working.Stops)
		working.TotalMinutes = TotalMinutes(working.TravelMinutes, working.ServiceMinutes)
		working.EstimatedPayout = Payout(working.Stops, orders)
		return working, ModeReview, "", nil
	}

	t := input.Trip
	stops := make([]domain.SuggestedStop, 0, len(t.Stops))
	for _, ts := range t.Stops {
		stops = append(stops, domain.SuggestedStop{WorkOrderID: ts.WorkOrderID})
	}
	stops = normalizeStops(stops, orders, types)

	working := domain.SuggestedTrip{
		ID:            t.ID,
		Name:          t.Name,
		Stops:         stops,
		StartLocation: t.StartLocation,
		EndLocation:   t.EndLocation,
	}
	working.ServiceMinutes = ServiceMinutes(stops)
	working.TotalMinutes = working.ServiceMinutes
	working.EstimatedPayout = Payout(stops, orders)
	if t.TotalMiles != nil {
		working.TotalMiles = *t.TotalMiles
	}
	if t.Status == domain.TripCompleted {
		if t.TotalTimeSeconds > 0 {
			m := float64(t.TotalTimeSeconds) / 60
			working.ActualMinutes = &m
		}
		working.ActualMiles = cloneFloat(t.TotalMiles)
	}

	return working, ModeEdit, t.ID, nil
}

// normalizeStops resolves each stop against the store: address from the
// work order when missing, service time from the work order type when
// missing. Unresolvable stops are silently excluded.
func normalizeStops(stops []domain.SuggestedStop, orders OrderResolver, types TypeResolver) []domain.SuggestedStop {
	out := make([]domain.SuggestedStop, 0, len(stops))
	for _, st := range stops {
		o, ok := orders(st.WorkOrderID)
		if !ok {
			continue
		}
		if strings.TrimSpace(st.Address) == "" {
			st.Address = o.Address
		}
		if st.ServiceTimeMinutes <= 0 {
			if tp, ok := types(o.TypeName); ok {
				st.ServiceTimeMinutes = tp.ServiceMinutes()
			}
		}
		out = append(out, st)
	}
	return out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// EditorView is a read-only snapshot of the session for rendering.
type EditorView struct {
	SessionID string
	Mode      EditorMode
	Phase     EditorPhase
	Trip      domain.SuggestedTrip
	TripID    string
	Error     string
}

func (s *EditorSession) View() EditorView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := EditorView{
		SessionID: s.ID,
		Mode:      s.Mode,
		Phase:     s.phase,
		Trip:      s.working,
		TripID:    s.tripID,
		Error:     s.lastErr,
	}
	v.Trip.Stops = s.working.CloneStops()
	v.Trip.ActualMinutes = cloneFloat(s.working.ActualMinutes)
	v.Trip.ActualMiles = cloneFloat(s.working.ActualMiles)
	return v
}

// CurrentToken returns the newest recalculation token. Immediately after
// NewEditorSession it identifies the initial load recalculation.
func (s *EditorSession) CurrentToken() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// bumpLocked registers a structural change: new token, recalculating phase.
func (s *EditorSession) bumpLocked() uint64 {
	s.seq++
	s.phase = PhaseRecalculating
	s.lastErr = ""
	return s.seq
}

// recomputeLocalLocked refreshes the derived metrics that do not need a
// route request. Travel stays at its last known value until Recalculate.
func (s *EditorSession) recomputeLocalLocked() {
	s.working.ServiceMinutes = ServiceMinutes(s.working.Stops)
	s.working.TotalMinutes = TotalMinutes(s.working.TravelMinutes, s.working.ServiceMinutes)
	s.working.EstimatedPayout = Payout(s.working.Stops, s.deps.Orders)
}

// SetStops replaces the whole stop list. Unknown work orders are dropped,
// known ones keep any service-time override they carry.
func (s *EditorSession) SetStops(stops []domain.SuggestedStop) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}

	s.working.Stops = normalizeStops(stops, s.deps.Orders, s.deps.Types)
	s.recomputeLocalLocked()
	return s.bumpLocked(), nil
}

// MoveStop reorders one stop. from == to is a no-op and triggers nothing.
func (s *EditorSession) MoveStop(from, to int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	n := len(s.working.Stops)
	if from < 0 || from >= n || to < 0 || to >= n {
		return 0, fmt.Errorf("move stop: index out of range (%d -> %d of %d)", from, to, n)
	}
	if from == to {
		return 0, nil
	}

	stops := s.working.CloneStops()
	moved := stops[from]
	stops = append(stops[:from], stops[from+1:]...)
	rest := append(stops[:to], append([]domain.SuggestedStop{moved}, stops[to:]...)...)
	s.working.Stops = rest

	s.recomputeLocalLocked()
	return s.bumpLocked(), nil
}

// AddStop appends a stop for the given work order.
func (s *EditorSession) AddStop(workOrderID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	if _, ok := s.deps.Orders(workOrderID); !ok {
		return 0, fmt.Errorf("add stop: unknown work order %q", workOrderID)
	}
	for _, st := range s.working.Stops {
		if st.WorkOrderID == workOrderID {
			return 0, fmt.Errorf("add stop: work order %q is already on the trip", workOrderID)
		}
	}

	added := normalizeStops([]domain.SuggestedStop{{WorkOrderID: workOrderID}}, s.deps.Orders, s.deps.Types)
	s.working.Stops = append(s.working.CloneStops(), added...)
	s.recomputeLocalLocked()
	return s.bumpLocked(), nil
}

// RemoveStop removes the stop referencing the given work order.
func (s *EditorSession) RemoveStop(workOrderID string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}

	idx := -1
	for i, st := range s.working.Stops {
		if st.WorkOrderID == workOrderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("remove stop: work order %q is not on the trip", workOrderID)
	}

	stops := s.working.CloneStops()
	s.working.Stops = append(stops[:idx], stops[idx+1:]...)
	s.recomputeLocalLocked()
	return s.bumpLocked(), nil
}

// SetStartLocation changes the route start. Setting the current value again
// is suppressed and returns token 0: no recalculation is due.
func (s *EditorSession) SetStartLocation(address string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}

	next := strings.TrimSpace(address)
	if next == strings.TrimSpace(s.working.StartLocation) {
		return 0, nil
	}
	s.working.StartLocation = next
	return s.bumpLocked(), nil
}

// SetEndLocation changes the route end, with the same no-op suppression as
// SetStartLocation.
func (s *EditorSession) SetEndLocation(address string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}

	next := strings.TrimSpace(address)
	if next == strings.TrimSpace(s.working.EndLocation) {
		return 0, nil
	}
	s.working.EndLocation = next
	return s.bumpLocked(), nil
}

// SetStopServiceTime overrides one stop's service minutes. This is a local
// recompute: sums change, travel does not, so no route request is issued
// and no token is returned.
func (s *EditorSession) SetStopServiceTime(workOrderID string, minutes float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if minutes < 0 {
		return fmt.Errorf("service time cannot be negative")
	}

	stops := s.working.CloneStops()
	found := false
	for i := range stops {
		if stops[i].WorkOrderID == workOrderID {
			stops[i].ServiceTimeMinutes = minutes
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("service time: work order %q is not on the trip", workOrderID)
	}

	s.working.Stops = stops
	s.recomputeLocalLocked()
	return nil
}

// Recalculate fetches authoritative travel metrics for the edit identified
// by token. If a newer edit exists by the time the response arrives, the
// response is discarded: the newest edit's recalculation owns the metrics.
func (s *EditorSession) Recalculate(ctx context.Context, token uint64) (err error) {
	defer obs.Time(ctx, "editor.recalculate")(&err)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if token != s.seq {
		s.mu.Unlock()
		return nil
	}
	q := ports.RouteQuery{
		Start: s.working.StartLocation,
		End:   s.working.EndLocation,
		Stops: s.working.StopAddresses(),
	}
	s.mu.Unlock()

	sum, routeErr := s.deps.Routes.Route(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || token != s.seq {
		// Stale response; a newer edit owns the session now.
		return nil
	}

	if routeErr != nil {
		s.phase = PhaseError
		s.lastErr = RouteErrorMessage(routeErr)
		return routeErr
	}

	s.working.TravelMinutes = float64(sum.TravelSeconds) / 60
	s.working.TotalMiles = sum.TotalMiles
	s.recomputeLocalLocked()
	s.phase = PhaseReady
	s.lastErr = ""
	return nil
}

// ReOptimize asks the planner to rework the current stop set into exactly
// one trip with the current endpoints. On success the stops and estimates
// are replaced wholesale and a fresh recalculation token is returned; on
// failure the working trip is untouched.
func (s *EditorSession) ReOptimize(ctx context.Context) (_ uint64, err error) {
	defer obs.Time(ctx, "editor.reoptimize")(&err)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0, ErrSessionClosed
	}
	if s.deps.Planner == nil {
		s.mu.Unlock()
		return 0, errors.New("re-optimize: no planner configured")
	}
	if len(s.working.Stops) == 0 {
		s.mu.Unlock()
		return 0, errors.New("re-optimize: trip has no stops")
	}

	orders := make([]domain.WorkOrder, 0, len(s.working.Stops))
	typeSeen := make(map[string]bool)
	var types []domain.WorkOrderType
	for _, st := range s.working.Stops {
		o, ok := s.deps.Orders(st.WorkOrderID)
		if !ok {
			continue
		}
		orders = append(orders, o)
		key := strings.ToLower(o.TypeName)
		if !typeSeen[key] {
			typeSeen[key] = true
			if tp, ok := s.deps.Types(o.TypeName); ok {
				types = append(types, tp)
			}
		}
	}

	settings, goals := domain.DefaultTripSettings(), domain.DefaultFinancialGoals()
	if s.deps.Settings != nil {
		settings, goals = s.deps.Settings()
	}

	req := PlanRequest{
		Orders:        orders,
		Types:         types,
		StartLocation: s.working.StartLocation,
		EndLocation:   s.working.EndLocation,
		Settings:      settings,
		Goals:         goals,
		MaxTrips:      1,
	}
	s.mu.Unlock()

	result, err := s.deps.Planner.Plan(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrSessionClosed
	}
	if err != nil {
		return 0, err
	}

	sg := result.Suggestions[0]
	s.working.Stops = sg.CloneStops()
	s.working.TravelMinutes = sg.TravelMinutes
	s.working.ServiceMinutes = sg.ServiceMinutes
	s.working.TotalMinutes = sg.TotalMinutes
	s.working.TotalMiles = sg.TotalMiles
	s.working.EstimatedPayout = sg.EstimatedPayout
	s.working.Reasoning = "Re-optimized: " + sg.Reasoning
	s.working.ViolationWarning = sg.ViolationWarning

	return s.bumpLocked(), nil
}

// Finalize emits the working trip for materialization and closes the
// session. Only a Ready session can finalize; anything else still has a
// recalculation pending or failed.
func (s *EditorSession) Finalize() (domain.SuggestedTrip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.SuggestedTrip{}, ErrSessionClosed
	}
	if s.phase != PhaseReady {
		return domain.SuggestedTrip{}, fmt.Errorf("cannot finalize while %s", s.phase)
	}

	out := s.working
	out.Stops = s.working.CloneStops()
	out.ActualMinutes = cloneFloat(s.working.ActualMinutes)
	out.ActualMiles = cloneFloat(s.working.ActualMiles)
	s.closed = true
	return out, nil
}

// TripID returns the persisted trip id behind an edit session, empty in
// review mode.
func (s *EditorSession) TripID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tripID
}

// Reject discards the session. Nothing is persisted; idempotent.
func (s *EditorSession) Reject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether the session has been finalized or rejected.
func (s *EditorSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// RouteErrorMessage renders a route failure for the dispatcher. Address
// problems say so, since the remediation is fixing an address rather than
// retrying later.
func RouteErrorMessage(err error) string {
	if errors.Is(err, ports.ErrMissingEndpoint) {
		return "trip needs a start and end location"
	}
	var re *ports.RouteError
	if errors.As(err, &re) && re.NoRoute() {
		return "no route found, check the addresses"
	}
	return "route calculation failed"
}
