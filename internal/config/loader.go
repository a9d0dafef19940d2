package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Path returns the config file used when none is given. The location is
// resolved in this order:
//  1. GEOINSPECT_CONFIG environment variable.
//  2. ~/.geoinspect/config.yaml.
//
// It returns "" when no home directory exists.
func Path() string {
	if p := os.Getenv("GEOINSPECT_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultDir, ConfigFile)
}

// Load builds the configuration in layers, later ones overriding earlier
// ones:
//  1. Defaults.
//  2. The YAML file at path, if it exists.
//  3. Environment variables.
//
// The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		//nolint:gosec // G304: Path is chosen by the user.
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			cfg.resolvePaths(filepath.Dir(path))
		}
	}

	if err := MergeFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	for i, p := range c.UserTypes {
		if p != "" && !filepath.IsAbs(p) {
			c.UserTypes[i] = filepath.Join(dir, p)
		}
	}
}
