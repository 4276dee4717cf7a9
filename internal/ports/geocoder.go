package ports

import (
	"context"
	"field-dispatch-service/internal/domain"
)

// Contract for resolving a street address to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Coordinates, error)
}

// Per-leg metrics cached between recalculations. Keys are
// "origin|destination" with normalized addresses.
type LegMetrics struct {
	DistanceMeters  int
	DurationSeconds int
}

// Port: persistent cache of per-leg route metrics.
type LegCache interface {
	GetMany(ctx context.Context, mode string, keys []string) (map[string]LegMetrics, error)
	PutMany(ctx context.Context, mode string, legs map[string]LegMetrics) error
}

// Port: persistent cache of geocoded addresses.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinates, error)
	PutMany(ctx context.Context, coords map[string]domain.Coordinates) error
}
