package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/platform/obs"
	"field-dispatch-service/internal/ports"
)

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Segments []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"segments"`
	} `json:"routes"`
}

type orsErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// OpenRouteService error codes that mean the addresses cannot be routed.
const (
	orsCodeRouteNotFound = 2009
	orsCodePointNotFound = 2010
)

// fetchChunkLegs issues one directions request for a chunk's coordinate
// sequence and returns the per-leg metrics in visit order.
func (o *ORSRouteProvider) fetchChunkLegs(
	ctx context.Context,
	profile string,
	coords []domain.Coordinates,
) (_ []ports.LegMetrics, err error) {
	defer obs.Time(ctx, "ors.fetchChunkLegs")(&err)

	if len(coords) < 2 {
		return nil, errors.New("directions request needs at least two coordinates")
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, profile)

	locations := make([][]float64, 0, len(coords))
	for _, c := range coords {
		locations = append(locations, c.CoordsToList())
	}

	payload, err := json.Marshal(directionsRequest{Coordinates: locations})
	if err != nil {
		return nil, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return nil, mapDirectionsError(err)
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Routes) == 0 {
		return nil, &ports.RouteError{
			Status: ports.RouteStatusZeroResults,
			Detail: "directions response contained no routes",
		}
	}

	segments := dr.Routes[0].Segments
	if len(segments) != len(coords)-1 {
		return nil, fmt.Errorf(
			"directions returned %d segments for %d coordinates",
			len(segments), len(coords),
		)
	}

	legs := make([]ports.LegMetrics, len(segments))
	for i, seg := range segments {
		// ORS reports float meters and seconds; round once at the edge.
		legs[i] = ports.LegMetrics{
			DistanceMeters:  int(math.Round(seg.Distance)),
			DurationSeconds: int(math.Round(seg.Duration)),
		}
	}

	return legs, nil
}

// mapDirectionsError lifts ORS address-level failures into RouteError so
// callers can tell "fix the address" apart from "service unavailable".
func mapDirectionsError(err error) error {
	var he *httpStatusError
	if !errors.As(err, &he) {
		return fmt.Errorf("directions request failed: %w", err)
	}

	var body orsErrorBody
	if jsonErr := json.Unmarshal([]byte(he.Body), &body); jsonErr == nil {
		switch body.Error.Code {
		case orsCodePointNotFound:
			return &ports.RouteError{Status: ports.RouteStatusNotFound, Detail: body.Error.Message}
		case orsCodeRouteNotFound:
			return &ports.RouteError{Status: ports.RouteStatusZeroResults, Detail: body.Error.Message}
		}
	}

	return fmt.Errorf("directions request failed: %w", err)
}
