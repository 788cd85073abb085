// Package config loads the project configuration file.
//
// The file carries only the project identity: its name and the
// frontend/backend stack choice. Once a run exists, the persisted run
// state is the single source of truth; the config file only seeds it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "stackpilot.yaml"

// Supported stack choices.
const (
	FrontendNextJS  = "nextjs"
	BackendSupabase = "supabase"
)

// projectNameRegex validates the project name: 1-32 lowercase alphanumeric
// characters or hyphens, starting and ending with an alphanumeric.
var projectNameRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,30}[a-z0-9])?$`)

// Config is the project identity.
type Config struct {
	// Name is the project name, used for the repository, the hosting
	// project and the scaffolded directory.
	Name string `yaml:"name"`

	// Frontend selects the frontend stack. Defaults to nextjs.
	Frontend string `yaml:"frontend"`

	// Backend selects the backend platform. Defaults to supabase.
	Backend string `yaml:"backend"`
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates configuration data.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Frontend == "" {
		c.Frontend = FrontendNextJS
	}
	if c.Backend == "" {
		c.Backend = BackendSupabase
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if !projectNameRegex.MatchString(c.Name) {
		return fmt.Errorf("project name must be 1-32 lowercase alphanumeric characters or hyphens, starting and ending with alphanumeric")
	}
	if c.Frontend != FrontendNextJS {
		return fmt.Errorf("unsupported frontend %q (supported: %s)", c.Frontend, FrontendNextJS)
	}
	if c.Backend != BackendSupabase {
		return fmt.Errorf("unsupported backend %q (supported: %s)", c.Backend, BackendSupabase)
	}
	return nil
}

// ValidateName checks a bare project name, for prompt validation.
func ValidateName(name string) error {
	cfg := Config{Name: name}
	cfg.ApplyDefaults()
	return cfg.Validate()
}

// DefaultConfigPath returns the config file location in dir.
func DefaultConfigPath(dir string) string {
	return filepath.Join(dir, DefaultConfigFilename)
}

// Write persists the configuration to path.
func Write(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
