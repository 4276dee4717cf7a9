package routing

import (
	"context"
	"sync"

	"field-dispatch-service/internal/ports"
)

// MockRouteProvider returns synthetic summaries for tests and offline
// development. Every leg costs the same fixed time and distance, so
// totals scale with the number of stops.
type MockRouteProvider struct {
	LegSeconds int
	LegMiles   float64
	Err        error

	// OnRoute, when set, runs after the query is recorded and before the
	// summary is computed. Tests use it to interleave work with an
	// in-flight request.
	OnRoute func(q ports.RouteQuery)

	mu    sync.Mutex
	calls []ports.RouteQuery
}

func NewMockRouteProvider() *MockRouteProvider {
	return &MockRouteProvider{LegSeconds: 600, LegMiles: 5}
}

func (m *MockRouteProvider) Route(_ context.Context, q ports.RouteQuery) (ports.RouteSummary, error) {
	m.mu.Lock()
	m.calls = append(m.calls, q)
	hook := m.OnRoute
	m.mu.Unlock()

	if hook != nil {
		hook(q)
	}

	if m.Err != nil {
		return ports.RouteSummary{}, m.Err
	}
	if q.Start == "" || q.End == "" {
		return ports.RouteSummary{}, ports.ErrMissingEndpoint
	}

	legs := len(q.Stops) + 1
	return ports.RouteSummary{
		TravelSeconds: legs * m.LegSeconds,
		TotalMiles:    float64(legs) * m.LegMiles,
	}, nil
}

// Calls returns a copy of every query the mock has served.
func (m *MockRouteProvider) Calls() []ports.RouteQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.RouteQuery, len(m.calls))
	copy(out, m.calls)
	return out
}
