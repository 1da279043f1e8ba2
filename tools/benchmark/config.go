package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// LoadgenConfig represents the configuration file structure
type LoadgenConfig struct {
	NATSURL    string `json:"nats_url"`
	StreamName string `json:"stream_name"`
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*LoadgenConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg LoadgenConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(path string, cfg *LoadgenConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetDefaultConfigPath returns the default config path
func GetDefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".flip-loadgen.json"
	}
	return filepath.Join(home, ".flip-loadgen.json")
}
