package config

import (
	"os"
	"path/filepath"
)

// ConfigPathEnv overrides the configuration file location.
const ConfigPathEnv = "USAGE_CAPTURE_CONFIG"

// GetConfigPath returns the configuration file path: $USAGE_CAPTURE_CONFIG
// if set, otherwise ~/.usage-capture/config.
func GetConfigPath() (string, error) {
	if configPath := os.Getenv(ConfigPathEnv); configPath != "" {
		return configPath, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".usage-capture", "config"), nil
}
