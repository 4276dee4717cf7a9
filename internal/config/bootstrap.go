package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"field-dispatch-service/internal/domain"
)

// Bootstrap carries the planning defaults an operator ships alongside a
// fresh install. It is read once at startup and written into the state
// store only when no state has been persisted yet; after that the stored
// values win.
type Bootstrap struct {
	TripSettings   domain.TripSettings   `yaml:"trip_settings"`
	FinancialGoals domain.FinancialGoals `yaml:"financial_goals"`
}

// DefaultBootstrap mirrors the in-code defaults, so a partial file only
// overrides what it names.
func DefaultBootstrap() Bootstrap {
	return Bootstrap{
		TripSettings:   domain.DefaultTripSettings(),
		FinancialGoals: domain.DefaultFinancialGoals(),
	}
}

// LoadBootstrap reads and validates a bootstrap settings file. The file is
// unmarshaled over defaults.
func LoadBootstrap(path string) (Bootstrap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bootstrap{}, fmt.Errorf("load bootstrap settings: read %q: %w", path, err)
	}

	b := DefaultBootstrap()
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bootstrap{}, fmt.Errorf("load bootstrap settings: parse %q: %w", path, err)
	}

	if err := b.Validate(); err != nil {
		return Bootstrap{}, fmt.Errorf("load bootstrap settings: %q: %w", path, err)
	}
	return b, nil
}

// Validate rejects settings no trip could satisfy.
func (b Bootstrap) Validate() error {
	if err := b.TripSettings.Validate(); err != nil {
		return fmt.Errorf("trip_settings: %w", err)
	}
	if err := b.FinancialGoals.Validate(); err != nil {
		return fmt.Errorf("financial_goals: %w", err)
	}
	return nil
}
