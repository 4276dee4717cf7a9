package dto

import "time"

type TripStopResponse struct {
	WorkOrderID      string `json:"work_order_id"`
	IsCompleted      bool   `json:"is_completed"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

type TripResponse struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	Number           string             `json:"number"`
	Stops            []TripStopResponse `json:"stops"`
	StartTime        *time.Time         `json:"start_time,omitempty"`
	EndTime          *time.Time         `json:"end_time,omitempty"`
	TotalTimeSeconds int                `json:"total_time_seconds"`
	Status           string             `json:"status"`
	StartLocation    string             `json:"start_location"`
	EndLocation      string             `json:"end_location"`
	TotalMiles       *float64           `json:"total_miles,omitempty"`
	EstimatedPayout  *float64           `json:"estimated_payout,omitempty"`
}

type ListTripsResponse struct {
	Trips []TripResponse `json:"trips"`
}

type CompleteStopRequest struct {
	TimeSpentSeconds int `json:"time_spent_seconds"`
}
