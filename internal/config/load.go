package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration from dir/.ethspecify.yml. A missing file
// yields the defaults; an unreadable or malformed file prints a warning
// to warn and also yields the defaults, matching the tool's historical
// leniency. Values present in the file that fail validation are an
// error.
func Load(dir string, warn io.Writer) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		fmt.Fprintf(warn, "Warning: error reading %s file: %v\n", FileName, err)
		return Default(), nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		fmt.Fprintf(warn, "Warning: error reading %s file: %v\n", FileName, err)
		return Default(), nil
	}
	if cfg.Version == "" {
		cfg.Version = "nightly"
	}
	if cfg.Style == "" {
		cfg.Style = "hash"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", FileName, err)
	}
	return cfg, nil
}
