// Package boot loads process configuration from the environment using
// struct tags and envconfig.
package boot

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

// Config holds the opt-in diagnostic knobs read from the environment
// at startup. Everything that actually governs behavior (retry
// interval, token validity, max retries) lives in the settings table,
// not here.
type Config struct {
	Env      string `env:"ENV,default=dev"`
	LogLevel string `env:"PURE2P_LOG_LEVEL,default=info"`
	DataDir  string `env:"PURE2P_DATA_DIR,default=./app_data"`
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}
