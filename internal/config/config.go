package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds optional operator defaults loaded from ~/.config/stackgen/config.yaml.
type Config struct {
	DefaultProfile string `yaml:"default_profile"`
	DefaultRegion  string `yaml:"default_region"`
	DefaultEnv     string `yaml:"default_env"`
}

// LoadUserDefaults reads the user config file. Returns zero-value Config if the file doesn't exist.
func LoadUserDefaults() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Config{}, nil
	}
	return loadUserDefaultsFrom(filepath.Join(home, ".config", "stackgen", "config.yaml"))
}

func loadUserDefaultsFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge applies CLI flag overrides. Flags take precedence over config defaults.
func (c *Config) Merge(profile, region string) (string, string) {
	p := c.DefaultProfile
	if profile != "" {
		p = profile
	}
	r := c.DefaultRegion
	if region != "" {
		r = region
	}
	return p, r
}

// Environment picks the environment name: the flag, then $STACKGEN_ENV, then default_env.
func (c *Config) Environment(flag, fromEnv string) string {
	switch {
	case flag != "":
		return flag
	case fromEnv != "":
		return fromEnv
	default:
		return c.DefaultEnv
	}
}
