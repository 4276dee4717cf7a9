package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"field-dispatch-service/internal/domain"
)

func writeBootstrap(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBootstrap(t *testing.T) {
	path := writeBootstrap(t, `
trip_settings:
  max_trip_seconds: 21600
  max_trip_miles: 180
  priorities:
    - goal: maximize_payout
      enabled: true
    - goal: minimize_drive_time
      enabled: false
financial_goals:
  target_hourly_rate: 95
  target_per_mile_rate: 3
  target_trip_payout: 700
`)

	b, err := LoadBootstrap(path)
	require.NoError(t, err)

	assert.Equal(t, 21600, b.TripSettings.MaxTripSeconds)
	assert.Equal(t, 180.0, b.TripSettings.MaxTripMiles)
	require.Len(t, b.TripSettings.Priorities, 2)
	assert.Equal(t, domain.GoalMaximizePayout, b.TripSettings.Priorities[0].Goal)
	assert.False(t, b.TripSettings.Priorities[1].Enabled)
	assert.Equal(t, 95.0, b.FinancialGoals.TargetHourlyRate)
}

func TestLoadBootstrapPartialFileKeepsDefaults(t *testing.T) {
	path := writeBootstrap(t, `
financial_goals:
  target_trip_payout: 900
`)

	b, err := LoadBootstrap(path)
	require.NoError(t, err)

	// Unnamed sections keep the in-code defaults.
	assert.Equal(t, domain.DefaultTripSettings(), b.TripSettings)
	assert.Equal(t, 900.0, b.FinancialGoals.TargetTripPayout)
	assert.Equal(t, domain.DefaultFinancialGoals().TargetHourlyRate, b.FinancialGoals.TargetHourlyRate)
}

func TestLoadBootstrapRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero time limit", "trip_settings:\n  max_trip_seconds: 0\n  max_trip_miles: 100\n"},
		{"negative mileage", "trip_settings:\n  max_trip_seconds: 3600\n  max_trip_miles: -5\n"},
		{"unknown goal", `
trip_settings:
  max_trip_seconds: 3600
  max_trip_miles: 100
  priorities:
    - goal: teleport
      enabled: true
`},
		{"duplicate goal", `
trip_settings:
  max_trip_seconds: 3600
  max_trip_miles: 100
  priorities:
    - goal: maximize_payout
      enabled: true
    - goal: maximize_payout
      enabled: false
`},
		{"negative target", `
financial_goals:
  target_hourly_rate: -1
`},
		{"not yaml", "{{{"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadBootstrap(writeBootstrap(t, tc.content))
			require.Error(t, err)
		})
	}
}

func TestLoadBootstrapMissingFile(t *testing.T) {
	_, err := LoadBootstrap(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestGetEnvFallback(t *testing.T) {
	t.Setenv("DISPATCH_TEST_KEY", "")
	assert.Equal(t, "fallback", Get("DISPATCH_TEST_KEY", "fallback"))

	t.Setenv("DISPATCH_TEST_KEY", "  ")
	assert.Equal(t, "fallback", Get("DISPATCH_TEST_KEY", "fallback"))

	t.Setenv("DISPATCH_TEST_KEY", "set")
	assert.Equal(t, "set", Get("DISPATCH_TEST_KEY", "fallback"))
}
