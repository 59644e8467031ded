// Package config loads the sequencing model's YAML settings file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ChrisMcGann/mgfprep/pkg/core"
	"github.com/ChrisMcGann/mgfprep/pkg/normalize"
)

// DefaultProgressEvery is the progress line cadence when the file does not set one.
const DefaultProgressEvery = 1000

// Config holds the settings used by the mapper. Keys the mapper does not use
// (the model's own training and inference settings) are ignored.
type Config struct {
	MaxCharge   int    `yaml:"max_charge"`
	ChargeClamp string `yaml:"charge_clamp"` // nearest | range
	LibraryPath string `yaml:"library_path"` // optional SQLite output

	// nil = DefaultProgressEvery, 0 disables progress lines
	ProgressEvery *int `yaml:"progress_every"`
}

// Load reads, validates and normalizes the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, validates and normalizes a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)

	return &cfg, nil
}

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg.MaxCharge < 1 {
		return fmt.Errorf("max_charge must be a positive integer, got %d", cfg.MaxCharge)
	}

	if _, err := normalize.ParseClampMode(cfg.ChargeClamp); err != nil {
		return fmt.Errorf("charge_clamp: %w", err)
	}

	if cfg.ProgressEvery != nil && *cfg.ProgressEvery < 0 {
		return fmt.Errorf("progress_every must not be negative, got %d", *cfg.ProgressEvery)
	}

	return nil
}

// Normalize fills in defaults. It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.ChargeClamp == "" {
		cfg.ChargeClamp = normalize.ClampNearest.String()
	}
	if cfg.ProgressEvery == nil {
		n := DefaultProgressEvery
		cfg.ProgressEvery = &n
	}
}

// ValidCharges returns {1, ..., max_charge}.
func (c *Config) ValidCharges() core.ChargeSet {
	return core.ChargeRange(1, c.MaxCharge)
}

// ClampMode returns the parsed charge_clamp setting.
func (c *Config) ClampMode() normalize.ClampMode {
	mode, _ := normalize.ParseClampMode(c.ChargeClamp)
	return mode
}

// Progress returns the progress line cadence; 0 means disabled.
func (c *Config) Progress() int {
	if c.ProgressEvery == nil {
		return DefaultProgressEvery
	}
	return *c.ProgressEvery
}
