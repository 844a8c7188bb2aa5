// Package config loads the per-project .ethspecify.yml configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// FileName is the per-project configuration file looked up in the
// processed directory.
const FileName = ".ethspecify.yml"

// Config is the project configuration.
type Config struct {
	// Version selects the published index snapshot; "nightly" or a
	// semver release tag.
	Version string `yaml:"version"`
	// Style is the default rendering style for tags that do not carry
	// one.
	Style string `yaml:"style"`
	// Specrefs configures the files checked by the coverage checker.
	Specrefs Specrefs `yaml:"specrefs"`

	// Exceptions is the legacy top-level exception map, honored when
	// the specrefs section is a bare file list.
	Exceptions map[string][]string `yaml:"exceptions"`
}

// Specrefs lists the YAML files to check and the per-category coverage
// exceptions. It accepts both the current mapping form and the legacy
// bare list of files.
type Specrefs struct {
	Files      []string            `yaml:"files"`
	Exceptions map[string][]string `yaml:"exceptions"`
}

// UnmarshalYAML decodes either a sequence of file names or a
// {files, exceptions} mapping.
func (s *Specrefs) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		return value.Decode(&s.Files)
	}
	type plain Specrefs
	return value.Decode((*plain)(s))
}

// EffectiveExceptions returns the specrefs-scoped exception map when
// present, else the legacy top-level one.
func (c *Config) EffectiveExceptions() map[string][]string {
	if len(c.Specrefs.Exceptions) > 0 {
		return c.Specrefs.Exceptions
	}
	return c.Exceptions
}

// Default returns a Config with the fixed defaults.
func Default() *Config {
	return &Config{
		Version: "nightly",
		Style:   "hash",
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if c.Version != "nightly" {
		if _, err := semver.NewVersion(strings.TrimPrefix(c.Version, "v")); err != nil {
			return fmt.Errorf("version must be \"nightly\" or a semver tag, got %q", c.Version)
		}
	}
	switch c.Style {
	case "hash", "full", "diff", "link":
	default:
		return fmt.Errorf("unknown style %q", c.Style)
	}
	return nil
}
