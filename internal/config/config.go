package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/esfix/esfix/pkg/engine"
)

// Config holds all configuration for esfix
type Config struct {
	// Level is the capability level rewrites run at ("Level1" or "Level2")
	Level string `yaml:"level" env:"ESFIX_LEVEL"`

	// Jobs is the number of files processed concurrently (0 = NumCPU)
	Jobs int `yaml:"jobs" env:"ESFIX_JOBS"`

	// Excludes lists directory or glob patterns skipped during scanning,
	// on top of the built-in defaults
	Excludes []string `yaml:"excludes" env:"ESFIX_EXCLUDES"`

	// Cache enables the on-disk result cache at .esfix/cache.msgpack
	Cache bool `yaml:"cache" env:"ESFIX_CACHE"`

	// Logging
	Verbose bool `yaml:"verbose" env:"ESFIX_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Level:    engine.Level1.String(),
		Jobs:     0,
		Excludes: nil,
		Cache:    true,
		Verbose:  false,
	}
}

// globalConfigFilePath returns the global config file path (~/.esfix/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".esfix/config.yaml"
	}
	return filepath.Join(home, ".esfix", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.esfix/config.yaml)
func projectConfigFilePath() string {
	return ".esfix/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.esfix/config.yaml)
// 3. Global config (~/.esfix/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// SaveProject writes the configuration to the project-level path.
func (c *Config) SaveProject() error {
	return c.Save(projectConfigFilePath())
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ESFIX_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("ESFIX_JOBS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Jobs = i
		}
	}
	if v := os.Getenv("ESFIX_EXCLUDES"); v != "" {
		cfg.Excludes = splitList(v)
	}
	if v := os.Getenv("ESFIX_CACHE"); v != "" {
		cfg.Cache = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("ESFIX_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if _, err := engine.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid level: %s (must be 'Level1' or 'Level2')", c.Level)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must be non-negative")
	}
	return nil
}

// CapabilityLevel returns the parsed capability level. Call Validate first.
func (c *Config) CapabilityLevel() engine.Level {
	level, err := engine.ParseLevel(c.Level)
	if err != nil {
		return engine.Level1
	}
	return level
}

// splitList parses a comma-separated environment value
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
