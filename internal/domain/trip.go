package domain

import (
	"fmt"
	"time"
)

// Trip lifecycle status. A trip is created in Planning or, on approval of a
// planner suggestion, directly in Planned.
type TripStatus string

const (
	TripPlanning  TripStatus = "Planning"
	TripPlanned   TripStatus = "Planned"
	TripActive    TripStatus = "Active"
	TripCompleted TripStatus = "Completed"
)

// TripStop references a work order within a trip's route. Completion and
// time spent are recorded per stop while the trip is active; address and
// service time come from the referenced work order.
type TripStop struct {
	WorkOrderID      string `json:"work_order_id"`
	IsCompleted      bool   `json:"is_completed"`
	TimeSpentSeconds int    `json:"time_spent_seconds"`
}

// Trip is a committed, numbered route. Stops reference existing work order
// ids; a work order belongs to at most one non-completed trip at a time,
// enforced by planning-time filtering rather than by the store.
type Trip struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Number           string     `json:"number"`
	Stops            []TripStop `json:"stops"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	TotalTimeSeconds int        `json:"total_time_seconds"`
	Status           TripStatus `json:"status"`
	StartLocation    string     `json:"start_location"`
	EndLocation      string     `json:"end_location"`
	TotalMiles       *float64   `json:"total_miles,omitempty"`
	EstimatedPayout  *float64   `json:"estimated_payout,omitempty"`
}

// Startable reports whether Start is a legal transition.
func (t *Trip) Startable() bool {
	return t.Status == TripPlanning || t.Status == TripPlanned
}

// Deletable reports whether the trip may be removed. Active and completed
// trips are kept for reporting.
func (t *Trip) Deletable() bool {
	return t.Status == TripPlanning || t.Status == TripPlanned
}

// FindStop returns the stop referencing the given work order, or nil.
func (t *Trip) FindStop(workOrderID string) *TripStop {
	for i := range t.Stops {
		if t.Stops[i].WorkOrderID == workOrderID {
			return &t.Stops[i]
		}
	}
	return nil
}

// WorkOrderIDs returns the referenced order ids in stop order.
func (t *Trip) WorkOrderIDs() []string {
	ids := make([]string, 0, len(t.Stops))
	for _, s := range t.Stops {
		ids = append(ids, s.WorkOrderID)
	}
	return ids
}

// TripDatePrefix formats the MMDDYY prefix shared by all trip numbers
// issued on the given date.
func TripDatePrefix(t time.Time) string { return t.Format("010206") }

// FormatTripNumber builds a trip number from a date and a 1-based
// same-date sequence value, e.g. 082426-3.
func FormatTripNumber(t time.Time, seq int) string {
	return fmt.Sprintf("%s-%d", TripDatePrefix(t), seq)
}
