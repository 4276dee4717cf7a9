package services

import (
	"testing"

	"field-dispatch-service/internal/domain"
)

func TestServiceMinutesSums(t *testing.T) {
	stops := []domain.SuggestedStop{
		{WorkOrderID: "a", ServiceTimeMinutes: 30},
		{WorkOrderID: "b", ServiceTimeMinutes: 45.5},
		{WorkOrderID: "c", ServiceTimeMinutes: 0},
	}

	if got := ServiceMinutes(stops); got != 75.5 {
		t.Fatalf("ServiceMinutes = %v, want 75.5", got)
	}

	if got := ServiceMinutes(nil); got != 0 {
		t.Fatalf("ServiceMinutes(nil) = %v, want 0", got)
	}
}

func TestPayoutSkipsUnresolvableStops(t *testing.T) {
	orders := map[string]domain.WorkOrder{
		"a": {ID: "a", BaseRate: 100, MiscFee: 25},
		"b": {ID: "b", BaseRate: 200, MiscFee: 0},
	}
	lookup := func(id string) (domain.WorkOrder, bool) {
		o, ok := orders[id]
		return o, ok
	}

	stops := []domain.SuggestedStop{
		{WorkOrderID: "a"},
		{WorkOrderID: "deleted-elsewhere"},
		{WorkOrderID: "b"},
	}

	if got := Payout(stops, lookup); got != 325 {
		t.Fatalf("Payout = %v, want 325", got)
	}
}

func TestRateZeroGuards(t *testing.T) {
	if got := HourlyRate(100, 0); got != 0 {
		t.Fatalf("HourlyRate(100, 0) = %v, want 0", got)
	}
	if got := PerMileRate(100, 0); got != 0 {
		t.Fatalf("PerMileRate(100, 0) = %v, want 0", got)
	}

	// 120 minutes at $300 payout is $150/hour.
	if got := HourlyRate(300, 120); got != 150 {
		t.Fatalf("HourlyRate(300, 120) = %v, want 150", got)
	}
	if got := PerMileRate(300, 120); got != 2.5 {
		t.Fatalf("PerMileRate(300, 120) = %v, want 2.5", got)
	}
}

func TestMetricsAreIdempotent(t *testing.T) {
	stops := []domain.SuggestedStop{
		{WorkOrderID: "a", ServiceTimeMinutes: 15},
		{WorkOrderID: "b", ServiceTimeMinutes: 20},
	}
	lookup := func(id string) (domain.WorkOrder, bool) {
		return domain.WorkOrder{ID: id, BaseRate: 50, MiscFee: 5}, true
	}

	first := struct {
		service, total, payout, hourly, perMile float64
	}{
		ServiceMinutes(stops),
		TotalMinutes(90, ServiceMinutes(stops)),
		Payout(stops, lookup),
		HourlyRate(Payout(stops, lookup), 125),
		PerMileRate(Payout(stops, lookup), 40),
	}

	second := struct {
		service, total, payout, hourly, perMile float64
	}{
		ServiceMinutes(stops),
		TotalMinutes(90, ServiceMinutes(stops)),
		Payout(stops, lookup),
		HourlyRate(Payout(stops, lookup), 125),
		PerMileRate(Payout(stops, lookup), 40),
	}

	if first != second {
		t.Fatalf("metrics changed across identical calls: %+v vs %+v", first, second)
	}
}
