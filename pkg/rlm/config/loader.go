// Package config – loader.go handles loading configuration from YAML files.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AcidicSoil/fast-rlm/pkg/rlm/rlmerr"
)

// LoadFromFile reads and parses a YAML configuration file.
func LoadFromFile(path string, logger *slog.Logger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindConfig, fmt.Errorf("reading config file: %w", err))
	}
	return Parse(data, logger)
}

// Parse parses YAML bytes into a Config. Starts with defaults and overlays
// values from the YAML, then validates ranges.
func Parse(data []byte, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, rlmerr.Wrap(rlmerr.KindConfig, fmt.Errorf("parsing config YAML: %w", err))
	}

	if cfg.MaxMoneySpent != nil {
		logger.Warn("max_money_spent is deprecated and ignored; use max_prompt_tokens / max_completion_tokens instead")
		cfg.MaxMoneySpent = nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes a Config as YAML to the specified path.
func SaveToFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// FindConfigFile searches for config files in standard locations.
// Returns the path of the first found, or empty string.
func FindConfigFile() string {
	candidates := []string{
		"rlm.yaml",
		"rlm.yml",
		"config.yaml",
		"config.yml",
		"configs/rlm.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
