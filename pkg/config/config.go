// Package config holds the bench configuration. It can be loaded from a YAML
// file so runs are reproducible; command line flags override file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/i5heu/GoCheckedQueue/internal/testbench"
)

// Concurrency is an alias for testbench.Config. This allows other programs to
// import the concurrency settings without pulling in the harness.
type Concurrency = testbench.Config

// Config describes one bench session.
type Config struct {
	Concurrency     []Concurrency `yaml:"concurrency"`
	Iterations      int           `yaml:"iterations"`
	Duration        time.Duration `yaml:"duration"`
	InvariantChecks bool          `yaml:"invariant_checks"`
	Output          string        `yaml:"output"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Concurrency: []Concurrency{
			{NumProducers: 1, NumConsumers: 1},
			{NumProducers: 2, NumConsumers: 2},
			{NumProducers: 8, NumConsumers: 8},
		},
		Iterations:      3,
		Duration:        time.Second,
		InvariantChecks: true,
		Output:          "test-results.json",
	}
}

// Load reads a YAML file on top of Default. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the harness cannot run.
func (c Config) Validate() error {
	if len(c.Concurrency) == 0 {
		return errors.New("config: at least one concurrency setting is required")
	}
	for i, cc := range c.Concurrency {
		if cc.NumProducers < 0 || cc.NumConsumers < 0 {
			return fmt.Errorf("config: concurrency[%d]: negative worker count", i)
		}
		if cc.NumProducers == 0 && cc.NumConsumers == 0 {
			return fmt.Errorf("config: concurrency[%d]: no workers", i)
		}
	}
	if c.Iterations <= 0 {
		return fmt.Errorf("config: iterations must be positive, got %d", c.Iterations)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("config: duration must be positive, got %s", c.Duration)
	}
	return nil
}
