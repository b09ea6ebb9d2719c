// Package config loads roundtable configuration from
// .roundtable/config.yaml with defaults and CLI flag overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ArchiveConfig represents the durable insight archive configuration
type ArchiveConfig struct {
	// Enabled enables persisting insights to the SQLite archive
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the archive database directory
	DBPath string `yaml:"db_path"`
}

// Config represents roundtable configuration options
type Config struct {
	// NumRoles is the default number of generated roles (0 = collaborator default)
	NumRoles int `yaml:"num_roles"`

	// TurnLimit caps the successful turns of one subtask dialogue
	TurnLimit int `yaml:"turn_limit"`

	// MaxRetries bounds consecutive failed step attempts (0 = unbounded)
	MaxRetries int `yaml:"max_retries"`

	// MaxConcurrency is the maximum number of subtasks running per stage
	// (1 = sequential)
	MaxConcurrency int `yaml:"max_concurrency"`

	// StepTimeout is the maximum duration of a single step invocation
	StepTimeout time.Duration `yaml:"step_timeout"`

	// LogLevel sets the logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where logs will be written
	LogDir string `yaml:"log_dir"`

	// OutputPath is the markdown transcript file (empty = console only)
	OutputPath string `yaml:"output_path"`

	// ClaudePath is the claude CLI executable
	ClaudePath string `yaml:"claude_path"`

	// Archive contains insight archive configuration
	Archive ArchiveConfig `yaml:"archive"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		NumRoles:       4,
		TurnLimit:      50,
		MaxRetries:     0, // Unbounded
		MaxConcurrency: 1, // Sequential
		StepTimeout:    5 * time.Minute,
		LogLevel:       "info",
		LogDir:         ".roundtable/logs",
		OutputPath:     "",
		ClaudePath:     "claude",
		Archive: ArchiveConfig{
			Enabled: true,
			DBPath:  ".roundtable/archive",
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Use a temporary struct to handle duration parsing
	type yamlConfig struct {
		NumRoles       int           `yaml:"num_roles"`
		TurnLimit      int           `yaml:"turn_limit"`
		MaxRetries     int           `yaml:"max_retries"`
		MaxConcurrency int           `yaml:"max_concurrency"`
		StepTimeout    string        `yaml:"step_timeout"`
		LogLevel       string        `yaml:"log_level"`
		LogDir         string        `yaml:"log_dir"`
		OutputPath     string        `yaml:"output_path"`
		ClaudePath     string        `yaml:"claude_path"`
		Archive        ArchiveConfig `yaml:"archive"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply non-zero values from file (merging with defaults)
	if yamlCfg.NumRoles != 0 {
		cfg.NumRoles = yamlCfg.NumRoles
	}
	if yamlCfg.TurnLimit != 0 {
		cfg.TurnLimit = yamlCfg.TurnLimit
	}
	if yamlCfg.MaxRetries != 0 {
		cfg.MaxRetries = yamlCfg.MaxRetries
	}
	if yamlCfg.MaxConcurrency != 0 {
		cfg.MaxConcurrency = yamlCfg.MaxConcurrency
	}
	if yamlCfg.StepTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.StepTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid step_timeout format %q: %w", yamlCfg.StepTimeout, err)
		}
		cfg.StepTimeout = timeout
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.OutputPath != "" {
		cfg.OutputPath = yamlCfg.OutputPath
	}
	if yamlCfg.ClaudePath != "" {
		cfg.ClaudePath = yamlCfg.ClaudePath
	}

	// Merge archive config - check if the section was provided at all
	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err == nil {
		if archiveSection, exists := rawMap["archive"]; exists && archiveSection != nil {
			archiveMap, _ := archiveSection.(map[string]interface{})

			if _, exists := archiveMap["enabled"]; exists {
				cfg.Archive.Enabled = yamlCfg.Archive.Enabled
			}
			if _, exists := archiveMap["db_path"]; exists {
				cfg.Archive.DBPath = yamlCfg.Archive.DBPath
			}
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .roundtable/config.yaml in
// the specified directory. If the directory or file doesn't exist,
// returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ".roundtable", "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(numRoles *int, turnLimit *int, maxConcurrency *int, outputPath *string, logDir *string) {
	if numRoles != nil {
		c.NumRoles = *numRoles
	}
	if turnLimit != nil {
		c.TurnLimit = *turnLimit
	}
	if maxConcurrency != nil {
		c.MaxConcurrency = *maxConcurrency
	}
	if outputPath != nil {
		c.OutputPath = *outputPath
	}
	if logDir != nil {
		c.LogDir = *logDir
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.NumRoles < 0 {
		return fmt.Errorf("num_roles must be >= 0, got %d", c.NumRoles)
	}
	if c.TurnLimit < 1 {
		return fmt.Errorf("turn_limit must be >= 1, got %d", c.TurnLimit)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", c.MaxRetries)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be >= 1, got %d", c.MaxConcurrency)
	}
	if c.StepTimeout < 0 {
		return fmt.Errorf("step_timeout must be >= 0, got %v", c.StepTimeout)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: debug, info, warn, error", c.LogLevel)
	}

	if c.Archive.Enabled && c.Archive.DBPath == "" {
		return fmt.Errorf("archive.db_path cannot be empty when the archive is enabled")
	}

	return nil
}
