package services

import (
	"fmt"
	"strconv"
	"strings"

	"field-dispatch-service/internal/domain"
)

// plannerSystemPrompt pins the oracle to a machine-checkable output shape.
// The full-coverage rule lives here as a hard instruction; ParsePlanResponse
// still verifies it because models drop stops anyway.
const plannerSystemPrompt = `You are a dispatch planner for a field service company. You group work orders into efficient driving trips.

Always respond with valid JSON matching exactly this schema, with no surrounding prose:
{
  "suggestions": [
    {
      "name": "short trip name",
      "stops": [
        {"work_order_id": "id copied from the input", "address": "stop address"}
      ],
      "estimated_total_minutes": 0,
      "estimated_total_miles": 0,
      "reasoning": "one or two sentences on why this grouping works",
      "start_location": "trip start address",
      "end_location": "trip end address",
      "violation_warning": "present only when a hard limit is exceeded: name the limit and how far over it the trip runs"
    }
  ],
  "explanation": "required whenever more than one suggestion is returned"
}

Every work order id in the input MUST appear in exactly one suggestion's stops. Never omit, invent, or duplicate a work order id. Order stops within each trip to form a sensible driving sequence.`

// sanitizeField makes free text safe to embed in the serialized request.
// Backslashes are escaped before quotes so an existing escape is not
// doubled incorrectly; newlines collapse to spaces.
func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

func formatMinutes(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

// buildPlanUserPrompt renders the work order pool, hard limits, ranked
// goals, and endpoints into the user half of the oracle exchange.
func buildPlanUserPrompt(req PlanRequest, types map[string]domain.WorkOrderType) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Work orders to plan (%d):\n", len(req.Orders))
	for _, o := range req.Orders {
		service := 0.0
		if t, ok := types[strings.ToLower(o.TypeName)]; ok {
			service = t.ServiceMinutes()
		}
		fmt.Fprintf(&b, "- id=%s order=%s type=\"%s\" address=\"%s\" service_minutes=%s rate=%.2f due=%s\n",
			sanitizeField(o.ID),
			sanitizeField(o.OrderNumber),
			sanitizeField(o.TypeName),
			sanitizeField(o.Address),
			formatMinutes(service),
			o.TotalRate(),
			o.DueDate.Format("2006-01-02"),
		)
	}

	fmt.Fprintf(&b, "\nRoute endpoints:\n")
	fmt.Fprintf(&b, "- start: \"%s\"\n", sanitizeField(req.StartLocation))
	fmt.Fprintf(&b, "- end: \"%s\"\n", sanitizeField(req.EndLocation))

	fmt.Fprintf(&b, "\nHard limits per trip:\n")
	fmt.Fprintf(&b, "- max total time: %s minutes\n", formatMinutes(float64(req.Settings.MaxTripSeconds)/60))
	fmt.Fprintf(&b, "- max mileage: %.1f miles\n", req.Settings.MaxTripMiles)

	goals := req.Settings.EnabledGoals()
	if len(goals) > 0 {
		fmt.Fprintf(&b, "\nOptimization priorities, highest first:\n")
		for i, g := range goals {
			fmt.Fprintf(&b, "%d. %s\n", i+1, g)
		}
	}

	fmt.Fprintf(&b, "\nFinancial targets (soft, for choosing between otherwise-equal groupings):\n")
	fmt.Fprintf(&b, "- target hourly rate: %.2f\n", req.Goals.TargetHourlyRate)
	fmt.Fprintf(&b, "- target per-mile rate: %.2f\n", req.Goals.TargetPerMileRate)
	fmt.Fprintf(&b, "- target payout per trip: %.2f\n", req.Goals.TargetTripPayout)

	if req.MaxTrips > 0 {
		fmt.Fprintf(&b, "\nProduce exactly %d trip(s). The trip count takes precedence over the time and mileage limits: if a limit must be exceeded to honor the count, keep the count and set violation_warning on each trip that runs over, naming the limit and the amount exceeded.\n", req.MaxTrips)
	} else {
		fmt.Fprintf(&b, "\nProduce as many trips as needed so every trip stays within the hard limits.\n")
	}

	return b.String()
}
