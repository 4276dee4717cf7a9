package domain

// SuggestedStop is the lightweight per-stop unit used during planning and
// editing. Unlike TripStop it carries the address and service time inline,
// so the editor can recalculate without store lookups.
type SuggestedStop struct {
	WorkOrderID        string  `json:"work_order_id"`
	Address            string  `json:"address"`
	ServiceTimeMinutes float64 `json:"service_time_minutes"`
}

// SuggestedTrip is an ephemeral, not-yet-committed trip: either a planner
// candidate under review or a persisted trip opened for editing. It is the
// unit of exchange between the planner, the editor, and approval.
type SuggestedTrip struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Stops            []SuggestedStop `json:"stops"`
	TotalMinutes     float64         `json:"total_minutes"`
	TravelMinutes    float64         `json:"travel_minutes"`
	ServiceMinutes   float64         `json:"service_minutes"`
	TotalMiles       float64         `json:"total_miles"`
	EstimatedPayout  float64         `json:"estimated_payout"`
	Reasoning        string          `json:"reasoning"`
	Color            string          `json:"color"`
	ViolationWarning string          `json:"violation_warning,omitempty"`
	StartLocation    string          `json:"start_location"`
	EndLocation      string          `json:"end_location"`
	ActualMinutes    *float64        `json:"actual_minutes,omitempty"`
	ActualMiles      *float64        `json:"actual_miles,omitempty"`
}

// CloneStops returns an independent copy of the stop list. Editor sessions
// must never share backing arrays with the shared store.
func (s SuggestedTrip) CloneStops() []SuggestedStop {
	if len(s.Stops) == 0 {
		return []SuggestedStop{}
	}
	out := make([]SuggestedStop, len(s.Stops))
	copy(out, s.Stops)
	return out
}

// StopAddresses returns the stop addresses in route order.
func (s SuggestedTrip) StopAddresses() []string {
	out := make([]string, 0, len(s.Stops))
	for _, st := range s.Stops {
		out = append(out, st.Address)
	}
	return out
}

// WorkOrderIDs returns the referenced order ids in stop order.
func (s SuggestedTrip) WorkOrderIDs() []string {
	out := make([]string, 0, len(s.Stops))
	for _, st := range s.Stops {
		out = append(out, st.WorkOrderID)
	}
	return out
}

// suggestionPalette is the fixed display palette cycled across a batch of
// planner suggestions.
var suggestionPalette = []string{
	"#2563eb",
	"#16a34a",
	"#d97706",
	"#dc2626",
	"#7c3aed",
	"#0d9488",
}

// SuggestionColor returns the display color for a suggestion by its index
// within the batch, cycling when the batch outgrows the palette.
func SuggestionColor(index int) string {
	if index < 0 {
		index = 0
	}
	return suggestionPalette[index%len(suggestionPalette)]
}
