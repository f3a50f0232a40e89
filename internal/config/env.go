package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment variable read by rustty.
const EnvPrefix = "RUSTTY"

// Env holds settings read from RUSTTY_* environment variables. Empty
// values mean unset.
type Env struct {
	Password   string `envconfig:"PASSWORD"`
	LogLevel   string `envconfig:"LOG_LEVEL"`
	KnownHosts string `envconfig:"KNOWN_HOSTS"`
	Theme      string `envconfig:"THEME"`
}

// LoadEnv reads the environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return env, nil
}
