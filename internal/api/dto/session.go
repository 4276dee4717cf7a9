package dto

// OpenSessionRequest opens an editor session. Exactly one of TripID (edit an
// existing trip) or Suggestion (review a planner candidate) must be set.
type OpenSessionRequest struct {
	TripID     string      `json:"trip_id"`
	Suggestion *Suggestion `json:"suggestion"`
}

// SessionResponse is the polling view of an editor session. Trip reflects
// the working copy including the latest finished recalculation.
type SessionResponse struct {
	SessionID string     `json:"session_id"`
	Mode      string     `json:"mode"`
	Phase     string     `json:"phase"`
	TripID    string     `json:"trip_id,omitempty"`
	Error     string     `json:"error,omitempty"`
	Trip      Suggestion `json:"trip"`
}

type SetStopsRequest struct {
	Stops []SuggestionStop `json:"stops"`
}

type MoveStopRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type AddStopRequest struct {
	WorkOrderID string `json:"work_order_id"`
}

// EndpointsRequest updates the session start and/or end location. Nil fields
// are left untouched.
type EndpointsRequest struct {
	StartLocation *string `json:"start_location"`
	EndLocation   *string `json:"end_location"`
}

type ServiceTimeRequest struct {
	Minutes float64 `json:"minutes"`
}
