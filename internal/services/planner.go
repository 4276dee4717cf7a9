package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"field-dispatch-service/internal/domain"
	"field-dispatch-service/internal/platform/jsonutil"
	"field-dispatch-service/internal/platform/obs"
	"field-dispatch-service/internal/ports"
)

var (
	// ErrPlannerFailed covers oracle transport failures. The remediation
	// is to retry the same request.
	ErrPlannerFailed = errors.New("trip planner failed, please try again")

	// ErrMalformedPlan covers structurally invalid oracle output. Wrapped
	// errors carry the parse detail; the remediation differs from a
	// transport failure so callers must be able to tell them apart.
	ErrMalformedPlan = errors.New("trip planner returned a malformed response")
)

// PlanRequest is one constraint-planning exchange with the oracle.
type PlanRequest struct {
	Orders        []domain.WorkOrder
	Types         []domain.WorkOrderType
	StartLocation string
	EndLocation   string
	Settings      domain.TripSettings
	Goals         domain.FinancialGoals

	// MaxTrips, when positive, demands exactly that many trips even if a
	// hard limit must be exceeded; over-limit trips then carry a
	// violation warning. Zero lets the oracle choose the count.
	MaxTrips int
}

// PlanResult is a fully validated batch of suggestions. Either the whole
// oracle response validated or the batch is rejected; there is no partial
// acceptance.
type PlanResult struct {
	Suggestions []domain.SuggestedTrip
	Explanation string
}

// Planner turns a work order pool plus constraints into candidate trips by
// prompting the completion oracle and validating its structured response.
type Planner struct {
	oracle ports.CompletionClient
	now    func() time.Time
}

func NewPlanner(oracle ports.CompletionClient) *Planner {
	return &Planner{oracle: oracle, now: time.Now}
}

// Plan runs one full planning round. Input validation happens before any
// network call.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (_ PlanResult, err error) {
	defer obs.Time(ctx, "planner.plan")(&err)

	if len(req.Orders) == 0 {
		return PlanResult{}, errors.New("plan request has no work orders")
	}
	if strings.TrimSpace(req.StartLocation) == "" || strings.TrimSpace(req.EndLocation) == "" {
		return PlanResult{}, errors.New("plan request needs start and end locations")
	}

	types := typeIndex(req.Types)

	raw, err := p.oracle.Complete(ctx, plannerSystemPrompt, buildPlanUserPrompt(req, types))
	if err != nil {
		return PlanResult{}, fmt.Errorf("%w: %v", ErrPlannerFailed, err)
	}

	return p.parsePlanResponse(raw, req, types)
}

func typeIndex(types []domain.WorkOrderType) map[string]domain.WorkOrderType {
	out := make(map[string]domain.WorkOrderType, len(types))
	for _, t := range types {
		out[strings.ToLower(t.Name)] = t
	}
	return out
}

type planWireStop struct {
	WorkOrderID string `json:"work_order_id"`
	Address     string `json:"address"`
}

type planWireTrip struct {
	Name                  string         `json:"name"`
	Stops                 []planWireStop `json:"stops"`
	EstimatedTotalMinutes float64        `json:"estimated_total_minutes"`
	EstimatedTotalMiles   float64        `json:"estimated_total_miles"`
	Reasoning             string         `json:"reasoning"`
	StartLocation         string         `json:"start_location"`
	EndLocation           string         `json:"end_location"`
	ViolationWarning      string         `json:"violation_warning"`
}

type planWireResponse struct {
	Suggestions []planWireTrip `json:"suggestions"`
	Explanation string         `json:"explanation"`
}

// parsePlanResponse validates the oracle output against the request. Any
// structural defect rejects the whole batch.
func (p *Planner) parsePlanResponse(raw string, req PlanRequest, types map[string]domain.WorkOrderType) (PlanResult, error) {
	extracted := jsonutil.ExtractJSON(raw)
	if extracted == "" {
		return PlanResult{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedPlan)
	}

	var wire planWireResponse
	if err := json.Unmarshal([]byte(extracted), &wire); err != nil {
		return PlanResult{}, fmt.Errorf("%w: %v", ErrMalformedPlan, err)
	}

	if len(wire.Suggestions) == 0 {
		return PlanResult{}, fmt.Errorf("%w: suggestions array is empty", ErrMalformedPlan)
	}
	if req.MaxTrips > 0 && len(wire.Suggestions) != req.MaxTrips {
		return PlanResult{}, fmt.Errorf("%w: asked for exactly %d trip(s), got %d",
			ErrMalformedPlan, req.MaxTrips, len(wire.Suggestions))
	}
	if len(wire.Suggestions) > 1 && strings.TrimSpace(wire.Explanation) == "" {
		return PlanResult{}, fmt.Errorf("%w: multiple suggestions require an explanation", ErrMalformedPlan)
	}

	orders := make(map[string]domain.WorkOrder, len(req.Orders))
	for _, o := range req.Orders {
		orders[o.ID] = o
	}
	lookup := func(id string) (domain.WorkOrder, bool) {
		o, ok := orders[id]
		return o, ok
	}

	batch := p.now().UnixMilli()
	seen := make(map[string]bool, len(orders))
	result := PlanResult{Explanation: strings.TrimSpace(wire.Explanation)}

	for i, wt := range wire.Suggestions {
		stops := make([]domain.SuggestedStop, 0, len(wt.Stops))
		for _, ws := range wt.Stops {
			o, ok := orders[ws.WorkOrderID]
			if !ok {
				return PlanResult{}, fmt.Errorf("%w: unknown work order id %q", ErrMalformedPlan, ws.WorkOrderID)
			}
			if seen[ws.WorkOrderID] {
				return PlanResult{}, fmt.Errorf("%w: work order %q appears more than once", ErrMalformedPlan, ws.WorkOrderID)
			}
			seen[ws.WorkOrderID] = true

			address := strings.TrimSpace(ws.Address)
			if address == "" {
				address = o.Address
			}
			service := 0.0
			if t, ok := types[strings.ToLower(o.TypeName)]; ok {
				service = t.ServiceMinutes()
			}

			stops = append(stops, domain.SuggestedStop{
				WorkOrderID:        ws.WorkOrderID,
				Address:            address,
				ServiceTimeMinutes: service,
			})
		}

		serviceMinutes := ServiceMinutes(stops)
		travelMinutes := wt.EstimatedTotalMinutes - serviceMinutes
		if travelMinutes < 0 {
			travelMinutes = 0
		}

		name := strings.TrimSpace(wt.Name)
		if name == "" {
			name = fmt.Sprintf("Trip %d", i+1)
		}
		start := strings.TrimSpace(wt.StartLocation)
		if start == "" {
			start = req.StartLocation
		}
		end := strings.TrimSpace(wt.EndLocation)
		if end == "" {
			end = req.EndLocation
		}

		result.Suggestions = append(result.Suggestions, domain.SuggestedTrip{
			ID:             fmt.Sprintf("suggestion-%d-%d", batch, i),
			Name:           name,
			Stops:          stops,
			TotalMinutes:   TotalMinutes(travelMinutes, serviceMinutes),
			TravelMinutes:  travelMinutes,
			ServiceMinutes: serviceMinutes,
			TotalMiles:     wt.EstimatedTotalMiles,
			// Payout is recomputed locally; oracle arithmetic is not
			// trusted for billing figures.
			EstimatedPayout:  Payout(stops, lookup),
			Reasoning:        wt.Reasoning,
			Color:            domain.SuggestionColor(i),
			ViolationWarning: wt.ViolationWarning,
			StartLocation:    start,
			EndLocation:      end,
		})
	}

	if len(seen) != len(orders) {
		missing := make([]string, 0, len(orders)-len(seen))
		for id := range orders {
			if !seen[id] {
				missing = append(missing, id)
			}
		}
		sort.Strings(missing)
		return PlanResult{}, fmt.Errorf("%w: response omitted work orders %s",
			ErrMalformedPlan, strings.Join(missing, ", "))
	}

	return result, nil
}
