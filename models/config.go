// Package models defines data structures for configuration and collected rules.
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultReplacementFont is the flag-emoji font injected ahead of every
// original font-family chain.
const DefaultReplacementFont = "Twemoji Country Flags"

// ApplyConfig holds runtime configuration for apply operations.
// All values come from CLI flags, not external config files.
type ApplyConfig struct {
	URLs        []string
	WorkerCount int
}

// EngineOptions configures one font-override engine instance.
type EngineOptions struct {
	// ReplacementFont is the font name layered ahead of each original
	// font-family value.
	ReplacementFont string `yaml:"replacement_font"`
	// Debug gates the engine's diagnostic trace output.
	Debug bool `yaml:"debug"`
}

// DefaultEngineOptions returns the options used when no config file is present.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		ReplacementFont: DefaultReplacementFont,
	}
}

// LoadEngineOptions reads engine options from a YAML file. A missing file is
// not an error: defaults are returned so the CLI works with zero setup.
func LoadEngineOptions(path string) (EngineOptions, error) {
	opts := DefaultEngineOptions()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return opts, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("failed to parse config file: %w", err)
	}
	if opts.ReplacementFont == "" {
		opts.ReplacementFont = DefaultReplacementFont
	}
	return opts, nil
}
