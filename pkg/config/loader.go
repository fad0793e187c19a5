package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Load fills cfg from the process environment using `env` struct tags.
func Load(cfg any) error {
	return LoadWithEnv(cfg, nil)
}

// LoadWithEnv is Load against an explicit environment map. A nil map
// reads the process environment.
func LoadWithEnv(cfg any, environment map[string]string) error {
	opts := env.Options{}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
