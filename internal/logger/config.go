// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package logger

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the environment driven part of Options.
type Config struct {
	Name  string `env:"LOG_NAME"`
	Level string `env:"LOG_LEVEL" envDefault:"info"`
	Mode  Mode   `env:"MODE" envDefault:"development"`
	Root  string `env:"LOG_ROOT"`
}

// LoadConfig reads a Config from the environment, every variable prefixed with prefix.
func LoadConfig(prefix string) (*Config, error) {
	config, err := env.ParseAsWithOptions[Config](env.Options{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInit, err)
	}
	return &config, nil
}

// Options converts the configuration into logger Options.
func (c Config) Options() Options {
	return Options{
		Name:  c.Name,
		Level: c.Level,
		Mode:  c.Mode,
		Root:  c.Root,
	}
}
