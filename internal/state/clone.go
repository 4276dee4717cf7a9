package state

import (
	"time"

	"field-dispatch-service/internal/domain"
)

// Copy helpers. Reads hand out clones so callers can never mutate the live
// state through a shared slice or pointer field.

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFloatPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneOrder(o domain.WorkOrder) domain.WorkOrder {
	o.StartNotBefore = cloneTimePtr(o.StartNotBefore)
	o.CompletionDate = cloneTimePtr(o.CompletionDate)
	o.InvoiceDate = cloneTimePtr(o.InvoiceDate)
	o.RequiredResources = cloneStrings(o.RequiredResources)
	return o
}

func cloneOrders(in []domain.WorkOrder) []domain.WorkOrder {
	out := make([]domain.WorkOrder, len(in))
	for i := range in {
		out[i] = cloneOrder(in[i])
	}
	return out
}

func cloneType(t domain.WorkOrderType) domain.WorkOrderType {
	t.DefaultResources = cloneStrings(t.DefaultResources)
	return t
}

func cloneTypes(in []domain.WorkOrderType) []domain.WorkOrderType {
	out := make([]domain.WorkOrderType, len(in))
	for i := range in {
		out[i] = cloneType(in[i])
	}
	return out
}

func cloneTrip(t domain.Trip) domain.Trip {
	stops := make([]domain.TripStop, len(t.Stops))
	copy(stops, t.Stops)
	t.Stops = stops
	t.StartTime = cloneTimePtr(t.StartTime)
	t.EndTime = cloneTimePtr(t.EndTime)
	t.TotalMiles = cloneFloatPtr(t.TotalMiles)
	t.EstimatedPayout = cloneFloatPtr(t.EstimatedPayout)
	return t
}

func cloneTrips(in []domain.Trip) []domain.Trip {
	out := make([]domain.Trip, len(in))
	for i := range in {
		out[i] = cloneTrip(in[i])
	}
	return out
}

func cloneSettings(s domain.TripSettings) domain.TripSettings {
	priorities := make([]domain.TripGoalSetting, len(s.Priorities))
	copy(priorities, s.Priorities)
	s.Priorities = priorities
	return s
}
