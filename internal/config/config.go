// Package config holds the environment accessor both binaries use and the
// optional YAML bootstrap file that seeds planning settings into a fresh
// state.
package config

import (
	"os"
	"strings"
)

// Get returns the named environment variable, or fallback when it is unset
// or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
