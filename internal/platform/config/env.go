// Package config loads process configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix namespaces every ledger environment variable.
const EnvPrefix = "RBAC_LEDGER_"

// ParseEnv loads configuration from RBAC_LEDGER_-prefixed environment variables.
// Struct tags name the unprefixed variable, e.g. `env:"PORT"`.
func ParseEnv(target any) error {
	return ParseEnvWithPrefix(target, EnvPrefix)
}

// ParseEnvWithPrefix loads configuration from environment variables sharing prefix.
func ParseEnvWithPrefix(target any, prefix string) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: prefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
