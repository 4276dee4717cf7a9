package dto

// PlanRequest asks the planner for trip suggestions. When WorkOrderIDs is
// empty the whole unassigned pool is considered.
type PlanRequest struct {
	StartLocation string   `json:"start_location"`
	EndLocation   string   `json:"end_location"`
	MaxTrips      int      `json:"max_trips"`
	WorkOrderIDs  []string `json:"work_order_ids"`
}

type SuggestionStop struct {
	WorkOrderID        string  `json:"work_order_id"`
	Address            string  `json:"address"`
	ServiceTimeMinutes float64 `json:"service_time_minutes"`
}

// Suggestion is the wire form of a candidate trip. It travels both ways:
// down in PlanResponse, and back up when a client opens a review session on
// the candidate it picked.
type Suggestion struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Stops            []SuggestionStop `json:"stops"`
	TotalMinutes     float64          `json:"total_minutes"`
	TravelMinutes    float64          `json:"travel_minutes"`
	ServiceMinutes   float64          `json:"service_minutes"`
	TotalMiles       float64          `json:"total_miles"`
	EstimatedPayout  float64          `json:"estimated_payout"`
	Reasoning        string           `json:"reasoning"`
	Color            string           `json:"color"`
	ViolationWarning string           `json:"violation_warning,omitempty"`
	StartLocation    string           `json:"start_location"`
	EndLocation      string           `json:"end_location"`
	ActualMinutes    *float64         `json:"actual_minutes,omitempty"`
	ActualMiles      *float64         `json:"actual_miles,omitempty"`
}

type PlanResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
	Explanation string       `json:"explanation,omitempty"`
}
