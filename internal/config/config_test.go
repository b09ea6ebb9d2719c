package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TurnLimit != 50 || cfg.NumRoles != 4 || cfg.MaxConcurrency != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Archive.Enabled || cfg.Archive.DBPath != ".roundtable/archive" {
		t.Errorf("unexpected archive defaults: %+v", cfg.Archive)
	}
}

func TestLoadConfig_MergesWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
turn_limit: 10
step_timeout: 30s
log_level: debug
archive:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.TurnLimit != 10 {
		t.Errorf("expected turn_limit 10, got %d", cfg.TurnLimit)
	}
	if cfg.StepTimeout != 30*time.Second {
		t.Errorf("expected 30s step timeout, got %v", cfg.StepTimeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected debug level, got %s", cfg.LogLevel)
	}
	// Unspecified fields keep defaults.
	if cfg.NumRoles != 4 {
		t.Errorf("expected default num_roles, got %d", cfg.NumRoles)
	}
	if cfg.Archive.Enabled {
		t.Error("archive.enabled=false in file must override the default")
	}
	if cfg.Archive.DBPath != ".roundtable/archive" {
		t.Errorf("unspecified archive.db_path must keep default, got %s", cfg.Archive.DBPath)
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("turn_limit: [not a number"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestLoadConfig_InvalidStepTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("step_timeout: soonish"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	turnLimit := 5
	output := "out.md"
	cfg.MergeWithFlags(nil, &turnLimit, nil, &output, nil)

	if cfg.TurnLimit != 5 {
		t.Errorf("expected flag override, got %d", cfg.TurnLimit)
	}
	if cfg.OutputPath != "out.md" {
		t.Errorf("expected flag override, got %s", cfg.OutputPath)
	}
	if cfg.NumRoles != 4 {
		t.Errorf("nil flag must not override, got %d", cfg.NumRoles)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"zero turn limit", func(c *Config) { c.TurnLimit = 0 }, true},
		{"zero concurrency", func(c *Config) { c.MaxConcurrency = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, true},
		{"archive enabled without path", func(c *Config) { c.Archive.DBPath = "" }, true},
		{"archive disabled without path", func(c *Config) { c.Archive.Enabled = false; c.Archive.DBPath = "" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
