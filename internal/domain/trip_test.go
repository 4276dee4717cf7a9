package domain

import (
	"testing"
	"time"
)

func TestFormatTripNumber(t *testing.T) {
	date := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)

	if got := TripDatePrefix(date); got != "082426" {
		t.Fatalf("prefix = %q, want %q", got, "082426")
	}

	if got := FormatTripNumber(date, 1); got != "082426-1" {
		t.Fatalf("number = %q, want %q", got, "082426-1")
	}

	if got := FormatTripNumber(date, 12); got != "082426-12" {
		t.Fatalf("number = %q, want %q", got, "082426-12")
	}

	// Single-digit month and day must stay zero padded.
	jan := time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)
	if got := FormatTripNumber(jan, 2); got != "010527-2" {
		t.Fatalf("number = %q, want %q", got, "010527-2")
	}
}

func TestTripTransitionGuards(t *testing.T) {
	cases := []struct {
		status    TripStatus
		startable bool
		deletable bool
	}{
		{TripPlanning, true, true},
		{TripPlanned, true, true},
		{TripActive, false, false},
		{TripCompleted, false, false},
	}

	for _, c := range cases {
		trip := &Trip{Status: c.status}
		if got := trip.Startable(); got != c.startable {
			t.Errorf("status %s: Startable = %v, want %v", c.status, got, c.startable)
		}
		if got := trip.Deletable(); got != c.deletable {
			t.Errorf("status %s: Deletable = %v, want %v", c.status, got, c.deletable)
		}
	}
}

func TestTripFindStop(t *testing.T) {
	trip := &Trip{
		Stops: []TripStop{
			{WorkOrderID: "wo-1"},
			{WorkOrderID: "wo-2"},
		},
	}

	stop := trip.FindStop("wo-2")
	if stop == nil {
		t.Fatal("expected to find wo-2")
	}

	// The pointer must address the trip's own slice so mutations stick.
	stop.IsCompleted = true
	if !trip.Stops[1].IsCompleted {
		t.Fatal("mutation through FindStop did not reach the trip")
	}

	if trip.FindStop("wo-404") != nil {
		t.Fatal("expected nil for unknown work order")
	}
}

func TestSuggestionColorCycles(t *testing.T) {
	first := SuggestionColor(0)
	if first == "" {
		t.Fatal("palette returned empty color")
	}

	if got := SuggestionColor(len(suggestionPalette)); got != first {
		t.Fatalf("color at palette length = %q, want wrap to %q", got, first)
	}

	if got := SuggestionColor(-3); got != first {
		t.Fatalf("negative index = %q, want %q", got, first)
	}
}

func TestEnabledGoalsPreserveRank(t *testing.T) {
	settings := TripSettings{
		Priorities: []TripGoalSetting{
			{Goal: GoalMaximizePayout, Enabled: true},
			{Goal: GoalMinimizeDriveTime, Enabled: false},
			{Goal: GoalGroupByArea, Enabled: true},
		},
	}

	goals := settings.EnabledGoals()
	if len(goals) != 2 {
		t.Fatalf("expected 2 enabled goals, got %d", len(goals))
	}
	if goals[0] != GoalMaximizePayout || goals[1] != GoalGroupByArea {
		t.Fatalf("goal order = %v, want payout then area", goals)
	}
}
