// Package util provides configuration loading for WiFi Doctor.
package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

// LoadConfig loads configuration from a file (YAML or JSON). The file format
// is determined by extension. Environment variables are substituted before
// parsing, defaults are applied, and validation is performed.
func LoadConfig(path string) (*types.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Expand env vars in the raw data so they work in non-string fields too.
	data = []byte(os.ExpandEnv(string(data)))

	var config types.Config

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	case ".json":
		err = json.Unmarshal(data, &config)
	default:
		// Try YAML first, then JSON.
		err = yaml.Unmarshal(data, &config)
		if err != nil {
			err = json.Unmarshal(data, &config)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// LoadConfigOrDefault loads configuration from a file, or returns the default
// configuration when no path was given. A named path that does not exist is
// an error, so a mistyped --config cannot silently run with defaults.
func LoadConfigOrDefault(path string) (*types.Config, error) {
	if path == "" {
		return DefaultConfig()
	}
	return LoadConfig(path)
}

// DefaultConfig returns a configuration with all defaults applied.
func DefaultConfig() (*types.Config, error) {
	config := &types.Config{}
	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("default configuration invalid: %w", err)
	}
	return config, nil
}
