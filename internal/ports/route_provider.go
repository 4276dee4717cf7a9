package ports

import (
	"context"
	"errors"
	"fmt"
)

// Status vocabulary reported by the external route service. NOT_FOUND and
// ZERO_RESULTS mean an address problem the dispatcher can fix; FAILED is
// the generic transport/service bucket.
type RouteStatus string

const (
	RouteStatusOK          RouteStatus = "OK"
	RouteStatusNotFound    RouteStatus = "NOT_FOUND"
	RouteStatusZeroResults RouteStatus = "ZERO_RESULTS"
	RouteStatusFailed      RouteStatus = "FAILED"
)

// ErrMissingEndpoint is returned before any network call when a route query
// lacks a start or end location.
var ErrMissingEndpoint = errors.New("route query: start and end locations are required")

// RouteError carries the service status so callers can distinguish "fix the
// address" failures from transient ones.
type RouteError struct {
	Status RouteStatus
	Detail string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("route service: status=%s %s", e.Status, e.Detail)
}

// NoRoute reports whether the failure means the addresses cannot be routed,
// as opposed to the service being unavailable.
func (e *RouteError) NoRoute() bool {
	return e.Status == RouteStatusNotFound || e.Status == RouteStatusZeroResults
}

// RouteQuery is an ordered trip route: start, stops in visit order, end.
type RouteQuery struct {
	Start string
	End   string
	Stops []string
	Mode  string
}

// RouteSummary aggregates every leg of the route.
type RouteSummary struct {
	TravelSeconds int
	TotalMiles    float64
}

// Contract for computing drive time and mileage across an ordered stop
// sequence, chunking as needed around the provider's waypoint limit.
type RouteProvider interface {
	Route(ctx context.Context, q RouteQuery) (RouteSummary, error)
}
