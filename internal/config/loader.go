package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"fluorite-flake/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/fluorite-flake"
	configFileName = "config.yaml"
)

// DefaultConfigPath returns the user configuration directory
// ($HOME/.config/fluorite-flake).
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// ConfigFilePath returns the path of config.yaml inside the given directory.
func ConfigFilePath(configPath string) string {
	return filepath.Join(configPath, configFileName)
}

// Load loads configuration from the specified directory, merging config.yaml
// over the built-in defaults. A missing file is not an error.
func Load(configPath string) (Config, error) {
	configFilePath := ConfigFilePath(configPath)
	cfg := Default()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config at %s: %w", configFilePath, err)
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return cfg, nil
}
