package routing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/platform/obs"
	"field-dispatch-service/internal/ports"
)

const (
	defaultBaseURL      = "https://api.openrouteservice.org"
	defaultProfile      = "driving-car"
	defaultMaxWaypoints = 25

	metersToMiles = 0.000621371
)

// ORSOptions tunes the provider. Zero values fall back to defaults.
type ORSOptions struct {
	BaseURL      string
	Profile      string
	MaxWaypoints int
	Timeout      time.Duration
}

// ORSRouteProvider implements RouteProvider and Geocoder over
// OpenRouteService.
//
// It coordinates:
//   - Address normalization
//   - Session and persistent geocode caching
//   - Persistent per-leg metric caching
//   - Waypoint-limited chunking with concurrent chunk requests
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSRouteProvider struct {
	session      *http.Client
	apiKey       string
	baseURL      string
	profile      string
	maxWaypoints int
	legCache     ports.LegCache
	geocodeCache ports.GeocodeCache

	mu         sync.Mutex
	sessionGeo map[string]domain.Coordinates
}

func NewORSRouteProvider(
	apiKey string,
	legCache ports.LegCache,
	geocodeCache ports.GeocodeCache,
	opts ORSOptions,
) (*ORSRouteProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Profile == "" {
		opts.Profile = defaultProfile
	}
	if opts.MaxWaypoints < 1 {
		opts.MaxWaypoints = defaultMaxWaypoints
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &ORSRouteProvider{
		session:      &http.Client{Timeout: opts.Timeout},
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		profile:      opts.Profile,
		maxWaypoints: opts.MaxWaypoints,
		legCache:     legCache,
		geocodeCache: geocodeCache,
		sessionGeo:   make(map[string]domain.Coordinates),
	}, nil
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (o *ORSRouteProvider) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type chunkResult struct {
	idx  int
	legs []ports.LegMetrics
	err  error
}

// Route computes total drive time and mileage across the ordered stop
// sequence. Requests are chunked around the waypoint limit, issued
// concurrently, and joined before aggregation; a failed chunk fails the
// whole route with no partial totals.
func (o *ORSRouteProvider) Route(ctx context.Context, q ports.RouteQuery) (_ ports.RouteSummary, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	start := o.normalize(q.Start)
	end := o.normalize(q.End)
	if start == "" || end == "" {
		return ports.RouteSummary{}, ports.ErrMissingEndpoint
	}

	profile := o.profile
	if m := strings.TrimSpace(q.Mode); m != "" {
		profile = m
	}

	locations := make([]string, 0, len(q.Stops)+2)
	locations = append(locations, start)
	for _, s := range q.Stops {
		if ns := o.normalize(s); ns != "" {
			locations = append(locations, ns)
		}
	}
	locations = append(locations, end)

	uniq := make([]string, 0, len(locations))
	seen := make(map[string]struct{}, len(locations))
	for _, l := range locations {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		uniq = append(uniq, l)
	}

	coords, err := o.resolveCoordinates(ctx, uniq)
	if err != nil {
		return ports.RouteSummary{}, fmt.Errorf("route: resolve coordinates: %w", err)
	}

	chunks := chunkLocations(locations, o.maxWaypoints)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, 4)
	resultsCh := make(chan chunkResult, len(chunks))
	var wg sync.WaitGroup

	for i, c := range chunks {
		wg.Add(1)
		go func(idx int, ch routeChunk) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			legs, err := o.chunkLegs(ctx, profile, ch, coords)
			if err != nil {
				resultsCh <- chunkResult{idx: idx, err: fmt.Errorf("route chunk %d: %w", idx+1, err)}
				cancel()
				return
			}
			resultsCh <- chunkResult{idx: idx, legs: legs}
		}(i, c)
	}

	wg.Wait()
	close(resultsCh)

	allLegs := make([][]ports.LegMetrics, len(chunks))
	var firstErr error
	for res := range resultsCh {
		if res.err == nil {
			allLegs[res.idx] = res.legs
			continue
		}
		// The chunk that failed first cancels the rest; its error beats
		// the induced cancellations.
		if firstErr == nil || (errors.Is(firstErr, context.Canceled) && !errors.Is(res.err, context.Canceled)) {
			firstErr = res.err
		}
	}
	if firstErr != nil {
		return ports.RouteSummary{}, firstErr
	}

	var meters, seconds int
	for _, legs := range allLegs {
		for _, leg := range legs {
			meters += leg.DistanceMeters
			seconds += leg.DurationSeconds
		}
	}

	return ports.RouteSummary{
		TravelSeconds: seconds,
		TotalMiles:    float64(meters) * metersToMiles,
	}, nil
}

// chunkLegs returns the per-leg metrics for one chunk, serving entirely
// from the leg cache when every leg is present, otherwise fetching the
// whole chunk and writing the legs back.
func (o *ORSRouteProvider) chunkLegs(
	ctx context.Context,
	profile string,
	c routeChunk,
	coords map[string]domain.Coordinates,
) ([]ports.LegMetrics, error) {
	locs := c.locations()

	keys := make([]string, 0, len(locs)-1)
	for i := 0; i+1 < len(locs); i++ {
		keys = append(keys, legKey(locs[i], locs[i+1]))
	}

	if o.legCache != nil {
		hits, err := o.legCache.GetMany(ctx, profile, keys)
		if err != nil {
			return nil, fmt.Errorf("leg cache read: %w", err)
		}
		if len(hits) == len(keys) {
			legs := make([]ports.LegMetrics, len(keys))
			for i, k := range keys {
				legs[i] = hits[k]
			}
			return legs, nil
		}
	}

	coordSeq := make([]domain.Coordinates, 0, len(locs))
	for _, l := range locs {
		coord, ok := coords[l]
		if !ok {
			return nil, fmt.Errorf("missing coordinate for %q", l)
		}
		coordSeq = append(coordSeq, coord)
	}

	legs, err := o.fetchChunkLegs(ctx, profile, coordSeq)
	if err != nil {
		return nil, err
	}

	if o.legCache != nil {
		fresh := make(map[string]ports.LegMetrics, len(keys))
		for i, k := range keys {
			fresh[k] = legs[i]
		}
		if err := o.legCache.PutMany(ctx, profile, fresh); err != nil {
			log.Printf("leg cache write failed: %v", err)
		}
	}

	return legs, nil
}

func legKey(origin, destination string) string {
	return origin + "|" + destination
}
