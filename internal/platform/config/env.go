// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every variable read by the logs binaries.
const EnvPrefix = "LOGSPROVIDER_"

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ParseEnvWithPrefix loads configuration whose tags omit prefix.
func ParseEnvWithPrefix(target any, prefix string) error {
	opts := env.Options{Prefix: strings.TrimSpace(prefix)}
	if err := env.ParseWithOptions(target, opts); err != nil {
		return fmt.Errorf("parse env: %w: %w", ErrInvalidConfig, err)
	}
	return nil
}
