package domain

import "fmt"

// OptimizationGoal names a soft planning preference. Goals are ranked by
// their position in TripSettings.Priorities.
type OptimizationGoal string

const (
	GoalMinimizeDriveTime OptimizationGoal = "minimize_drive_time"
	GoalMaximizePayout    OptimizationGoal = "maximize_payout"
	GoalGroupByArea       OptimizationGoal = "group_by_area"
	GoalBalanceWorkload   OptimizationGoal = "balance_workload"
)

// TripGoalSetting is one entry in the ranked goal list.
type TripGoalSetting struct {
	Goal    OptimizationGoal `json:"goal" yaml:"goal"`
	Enabled bool             `json:"enabled" yaml:"enabled"`
}

// TripSettings holds the hard per-trip constraints and the ranked soft
// goals. Priorities order is rank; disabled entries keep their slot but are
// excluded from planning requests.
type TripSettings struct {
	MaxTripSeconds int               `json:"max_trip_seconds" yaml:"max_trip_seconds"`
	MaxTripMiles   float64           `json:"max_trip_miles" yaml:"max_trip_miles"`
	Priorities     []TripGoalSetting `json:"priorities" yaml:"priorities"`
}

// EnabledGoals returns the enabled goals in priority order.
func (s TripSettings) EnabledGoals() []OptimizationGoal {
	out := make([]OptimizationGoal, 0, len(s.Priorities))
	for _, p := range s.Priorities {
		if p.Enabled {
			out = append(out, p.Goal)
		}
	}
	return out
}

// Validate rejects constraint values no trip could satisfy.
func (s TripSettings) Validate() error {
	if s.MaxTripSeconds <= 0 {
		return fmt.Errorf("max_trip_seconds must be positive, got %d", s.MaxTripSeconds)
	}
	if s.MaxTripMiles <= 0 {
		return fmt.Errorf("max_trip_miles must be positive, got %g", s.MaxTripMiles)
	}

	known := map[OptimizationGoal]bool{
		GoalMinimizeDriveTime: true,
		GoalMaximizePayout:    true,
		GoalGroupByArea:       true,
		GoalBalanceWorkload:   true,
	}
	seen := make(map[OptimizationGoal]bool, len(s.Priorities))
	for _, p := range s.Priorities {
		if !known[p.Goal] {
			return fmt.Errorf("priorities: unknown goal %q", p.Goal)
		}
		if seen[p.Goal] {
			return fmt.Errorf("priorities: goal %q listed twice", p.Goal)
		}
		seen[p.Goal] = true
	}
	return nil
}

// FinancialGoals are presentation-level target metrics. They color the UI
// and are never enforced by planning or validation.
type FinancialGoals struct {
	TargetHourlyRate  float64 `json:"target_hourly_rate" yaml:"target_hourly_rate"`
	TargetPerMileRate float64 `json:"target_per_mile_rate" yaml:"target_per_mile_rate"`
	TargetTripPayout  float64 `json:"target_trip_payout" yaml:"target_trip_payout"`
}

// Validate rejects negative display targets.
func (g FinancialGoals) Validate() error {
	if g.TargetHourlyRate < 0 || g.TargetPerMileRate < 0 || g.TargetTripPayout < 0 {
		return fmt.Errorf("targets cannot be negative")
	}
	return nil
}

// DefaultTripSettings is the constraint set a fresh install starts with:
// an 8 hour day, 250 miles, every goal enabled with drive time first.
func DefaultTripSettings() TripSettings {
	return TripSettings{
		MaxTripSeconds: 8 * 60 * 60,
		MaxTripMiles:   250,
		Priorities: []TripGoalSetting{
			{Goal: GoalMinimizeDriveTime, Enabled: true},
			{Goal: GoalMaximizePayout, Enabled: true},
			{Goal: GoalGroupByArea, Enabled: true},
			{Goal: GoalBalanceWorkload, Enabled: false},
		},
	}
}

// DefaultFinancialGoals are the starting display targets.
func DefaultFinancialGoals() FinancialGoals {
	return FinancialGoals{
		TargetHourlyRate:  85,
		TargetPerMileRate: 2.5,
		TargetTripPayout:  600,
	}
}
