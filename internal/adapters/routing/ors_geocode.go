package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/platform/obs"
	"field-dispatch-service/internal/ports"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode resolves one address, implementing the Geocoder port. Results
// come from the session cache, then the persistent cache, then the
// geocoding endpoint.
func (o *ORSRouteProvider) Geocode(ctx context.Context, address string) (domain.Coordinates, error) {
	norm := o.normalize(address)
	if norm == "" {
		return domain.Coordinates{}, fmt.Errorf("geocode: address must be non-empty")
	}

	coords, err := o.resolveCoordinates(ctx, []string{norm})
	if err != nil {
		return domain.Coordinates{}, err
	}

	c, ok := coords[norm]
	if !ok {
		return domain.Coordinates{}, fmt.Errorf("geocode: no coordinates for %q", address)
	}
	return c, nil
}

// resolveCoordinates maps normalized addresses to coordinates, reading the
// session cache and the persistent cache before calling the service. Fresh
// results are written back to both; a failed cache write is logged, never
// fatal.
func (o *ORSRouteProvider) resolveCoordinates(
	ctx context.Context,
	addresses []string,
) (map[string]domain.Coordinates, error) {
	out := make(map[string]domain.Coordinates, len(addresses))

	misses := make([]string, 0, len(addresses))
	o.mu.Lock()
	for _, a := range addresses {
		if c, ok := o.sessionGeo[a]; ok {
			out[a] = c
			continue
		}
		misses = append(misses, a)
	}
	o.mu.Unlock()

	if len(misses) == 0 {
		return out, nil
	}

	if o.geocodeCache != nil {
		hits, err := o.geocodeCache.GetMany(ctx, misses)
		if err != nil {
			return nil, fmt.Errorf("geocode cache read: %w", err)
		}
		remaining := misses[:0]
		for _, a := range misses {
			if c, ok := hits[a]; ok {
				out[a] = c
				continue
			}
			remaining = append(remaining, a)
		}
		misses = remaining
	}

	if len(misses) > 0 {
		fresh, err := o.geocodeMany(ctx, misses)
		if err != nil {
			return nil, err
		}
		for a, c := range fresh {
			out[a] = c
		}

		if o.geocodeCache != nil && len(fresh) > 0 {
			if err := o.geocodeCache.PutMany(ctx, fresh); err != nil {
				log.Printf("geocode cache write failed: %v", err)
			}
		}
	}

	o.mu.Lock()
	for a, c := range out {
		o.sessionGeo[a] = c
	}
	o.mu.Unlock()

	return out, nil
}

// geocodeMany resolves addresses individually via /geocode/search. An
// address with no results is an address problem, reported as NOT_FOUND.
func (o *ORSRouteProvider) geocodeMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.geocodeMany")(&err)

	endpoint := o.baseURL + "/geocode/search"

	seen := make(map[string]struct{}, len(addresses))
	out := make(map[string]domain.Coordinates)
	for _, a := range addresses {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}

		resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
			req, err := o.newRequest(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return nil, err
			}
			q := req.URL.Query()
			q.Set("text", a)
			q.Set("size", "1")
			req.URL.RawQuery = q.Encode()
			return req, nil
		})
		if err != nil {
			return nil, fmt.Errorf("geocode %q: %w", a, err)
		}

		var decoded geocodeResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&decoded)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("decode geocode response for %q: %w", a, decodeErr)
		}

		if len(decoded.Features) == 0 {
			return nil, &ports.RouteError{
				Status: ports.RouteStatusNotFound,
				Detail: fmt.Sprintf("no geocode results for %q", a),
			}
		}

		coords := decoded.Features[0].Geometry.Coordinates
		if len(coords) != 2 {
			return nil, fmt.Errorf("invalid coordinate format for %q", a)
		}

		out[a] = domain.Coordinates{Lon: coords[0], Lat: coords[1]}
	}

	return out, nil
}
