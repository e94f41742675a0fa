package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Loader handles routing configuration loading and parsing.
type Loader struct{}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads, parses, and validates a routing configuration file.
func (l *Loader) Load(path string) (*TableConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return l.Parse(data)
}

// Parse parses and validates raw YAML configuration.
func (l *Loader) Parse(data []byte) (*TableConfig, error) {
	var cfg TableConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
