package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/esfix/esfix/pkg/engine"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Level", cfg.Level, "Level1"},
		{"Jobs", cfg.Jobs, 0},
		{"Cache", cfg.Cache, true},
		{"Verbose", cfg.Verbose, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("DefaultConfig().%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
	if len(cfg.Excludes) != 0 {
		t.Errorf("DefaultConfig().Excludes = %v, want empty", cfg.Excludes)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		wantErr     bool
		errContains string
	}{
		{
			name:    "level1",
			cfg:     &Config{Level: "Level1"},
			wantErr: false,
		},
		{
			name:    "level2 with jobs",
			cfg:     &Config{Level: "Level2", Jobs: 8},
			wantErr: false,
		},
		{
			name:        "unknown level",
			cfg:         &Config{Level: "Level3"},
			wantErr:     true,
			errContains: "invalid level",
		},
		{
			name:        "empty level",
			cfg:         &Config{Level: ""},
			wantErr:     true,
			errContains: "invalid level",
		},
		{
			name:        "negative jobs",
			cfg:         &Config{Level: "Level1", Jobs: -1},
			wantErr:     true,
			errContains: "jobs must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error containing %q, got nil", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Error = %q, should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		configYAML  string
		checkCfg    func(*testing.T, *Config)
		wantErr     bool
		errContains string
	}{
		{
			name: "load valid config from file",
			configYAML: `
level: Level2
jobs: 4
excludes:
  - generated
  - "*.min.js"
cache: false
verbose: true
`,
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.Level != "Level2" {
					t.Errorf("Level = %v, want Level2", cfg.Level)
				}
				if cfg.Jobs != 4 {
					t.Errorf("Jobs = %v, want 4", cfg.Jobs)
				}
				if len(cfg.Excludes) != 2 || cfg.Excludes[0] != "generated" {
					t.Errorf("Excludes = %v, want [generated *.min.js]", cfg.Excludes)
				}
				if cfg.Cache {
					t.Error("Cache = true, want false")
				}
				if !cfg.Verbose {
					t.Error("Verbose = false, want true")
				}
			},
		},
		{
			name:       "partial config keeps defaults",
			configYAML: "jobs: 2\n",
			checkCfg: func(t *testing.T, cfg *Config) {
				if cfg.Level != "Level1" {
					t.Errorf("Level = %v, want Level1 (default)", cfg.Level)
				}
				if cfg.Jobs != 2 {
					t.Errorf("Jobs = %v, want 2", cfg.Jobs)
				}
				if !cfg.Cache {
					t.Error("Cache = false, want true (default)")
				}
			},
		},
		{
			name: "invalid yaml",
			configYAML: `
level: Level1
  invalid: indent
`,
			wantErr:     true,
			errContains: "failed to parse",
		},
		{
			name:        "invalid level in file",
			configYAML:  "level: Turbo\n",
			wantErr:     true,
			errContains: "invalid level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}

			cfg, err := LoadFromFile(configPath)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error containing %q, got nil", tt.errContains)
				} else if !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("Error = %q, should contain %q", err.Error(), tt.errContains)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.checkCfg != nil {
				tt.checkCfg(t, cfg)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(*testing.T, *Config)
	}{
		{
			name:    "override level",
			envVars: map[string]string{"ESFIX_LEVEL": "Level2"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Level != "Level2" {
					t.Errorf("Level = %v, want Level2", cfg.Level)
				}
			},
		},
		{
			name:    "override jobs",
			envVars: map[string]string{"ESFIX_JOBS": "6"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Jobs != 6 {
					t.Errorf("Jobs = %v, want 6", cfg.Jobs)
				}
			},
		},
		{
			name:    "invalid jobs ignored",
			envVars: map[string]string{"ESFIX_JOBS": "not-an-int"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Jobs != 0 {
					t.Errorf("Jobs = %v, want 0 (default)", cfg.Jobs)
				}
			},
		},
		{
			name:    "excludes are comma separated",
			envVars: map[string]string{"ESFIX_EXCLUDES": "generated, tmp ,*.min.js"},
			check: func(t *testing.T, cfg *Config) {
				want := []string{"generated", "tmp", "*.min.js"}
				if len(cfg.Excludes) != len(want) {
					t.Fatalf("Excludes = %v, want %v", cfg.Excludes, want)
				}
				for i := range want {
					if cfg.Excludes[i] != want[i] {
						t.Errorf("Excludes[%d] = %v, want %v", i, cfg.Excludes[i], want[i])
					}
				}
			},
		},
		{
			name:    "disable cache",
			envVars: map[string]string{"ESFIX_CACHE": "false"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Cache {
					t.Error("Cache = true, want false")
				}
			},
		},
		{
			name:    "verbose accepts 1",
			envVars: map[string]string{"ESFIX_VERBOSE": "1"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Verbose {
					t.Error("Verbose = false, want true (from '1')")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := DefaultConfig()
			applyEnvOverrides(cfg)

			tt.check(t, cfg)
		})
	}
}

func TestConfigSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "dirs", "config.yaml")

	cfg := &Config{
		Level:    "Level2",
		Jobs:     3,
		Excludes: []string{"generated"},
		Cache:    true,
	}

	if err := cfg.Save(configPath); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatalf("Config file was not created at %s", configPath)
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() failed: %v", err)
	}
	if loaded.Level != cfg.Level {
		t.Errorf("Level mismatch: got %s, want %s", loaded.Level, cfg.Level)
	}
	if loaded.Jobs != cfg.Jobs {
		t.Errorf("Jobs mismatch: got %d, want %d", loaded.Jobs, cfg.Jobs)
	}
	if len(loaded.Excludes) != 1 || loaded.Excludes[0] != "generated" {
		t.Errorf("Excludes mismatch: got %v, want %v", loaded.Excludes, cfg.Excludes)
	}
}

func TestCapabilityLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected engine.Level
	}{
		{"Level1", engine.Level1},
		{"Level2", engine.Level2},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := &Config{Level: tt.level}
			if got := cfg.CapabilityLevel(); got != tt.expected {
				t.Errorf("CapabilityLevel() = %v, want %v", got, tt.expected)
			}
		})
	}
}
