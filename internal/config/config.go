// Package config loads the .cfgpanic.yaml file of a project.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the default name of the config file in the working directory.
const FileName = ".cfgpanic.yaml"

// Modes accepted by LegacyBuildLines and Color.
var Modes = []string{"auto", "always", "never"}

// Config holds the settings of the cfgpanic command. Command-line flags
// override them.
type Config struct {
	// Tags is the comma-separated build tags to add when loading packages.
	Tags string `yaml:"tags"`

	// Suffix is inserted between the template name and the gate name in
	// generated file names.
	Suffix string `yaml:"suffix"`

	// Nolint is appended to the doc comment of every stub.
	Nolint string `yaml:"nolint"`

	// LegacyBuildLines decides whether to write "// +build" lines.
	LegacyBuildLines string `yaml:"legacy_build_lines"`

	// Color decides whether to colorize error messages.
	Color string `yaml:"color"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Suffix:           "cfgpanic",
		Nolint:           "//nolint:unparam,revive",
		LegacyBuildLines: "auto",
		Color:            "auto",
	}
}

// Load loads configuration from a YAML file. Fields missing in the file keep
// their default values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !slices.Contains(Modes, c.LegacyBuildLines) {
		return fmt.Errorf("invalid legacy_build_lines: %q (valid: %v)", c.LegacyBuildLines, Modes)
	}
	if !slices.Contains(Modes, c.Color) {
		return fmt.Errorf("invalid color: %q (valid: %v)", c.Color, Modes)
	}
	if c.Suffix == "" || strings.ContainsAny(c.Suffix, `/\. `) {
		return fmt.Errorf("invalid suffix: %q", c.Suffix)
	}
	if c.Nolint != "" && !strings.HasPrefix(c.Nolint, "//") {
		return fmt.Errorf("nolint must be a line comment: %q", c.Nolint)
	}
	return nil
}
