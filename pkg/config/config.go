// Package config loads the execution core's ambient configuration: sandbox
// defaults, approval policy flags, and backup retention settings. It is
// intentionally small — command-specific business logic and anything in the
// "deliberately out of scope" list of the core's specification (UI, model
// providers, memory store, telemetry) is not configured here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default configuration values, exported for documentation and validation.
const (
	DefaultSandboxLevel       = "workspace-write"
	DefaultAutoApproveLowRisk = true
	DefaultInteractive        = true
	DefaultApprovalTimeout    = 2 * time.Minute
	DefaultBackupMaxAgeDays   = 30
	DefaultBackupMaxEntries   = 100
)

// Config is the complete execution-core configuration.
type Config struct {
	Sandbox  SandboxConfig  `yaml:"sandbox"`
	Approval ApprovalConfig `yaml:"approval"`
	Backup   BackupConfig   `yaml:"backup"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SandboxConfig controls the default sandbox level and workspace.
type SandboxConfig struct {
	Level        string `yaml:"level"`
	AllowNetwork bool   `yaml:"allow_network"`
}

// ApprovalConfig controls the approval manager's resolution policy.
type ApprovalConfig struct {
	AutoApproveLowRisk bool          `yaml:"auto_approve_low_risk"`
	Interactive        bool          `yaml:"interactive"`
	Timeout            time.Duration `yaml:"timeout"`
}

// BackupConfig controls the backup manager's retention sweep.
type BackupConfig struct {
	Root        string `yaml:"root"`
	MaxAgeDays  int    `yaml:"max_age_days"`
	MaxEntries  int    `yaml:"max_entries"`
	SweepPeriod time.Duration `yaml:"sweep_period"`
}

// AuditConfig controls where per-session audit logs are written.
type AuditConfig struct {
	Root string `yaml:"root"`
}

// LoggingConfig controls the ambient diagnostic logger.
type LoggingConfig struct {
	Root     string `yaml:"root"`
	MinLevel string `yaml:"min_level"`
}

// DefaultConfig returns the built-in configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Sandbox: SandboxConfig{
			Level:        DefaultSandboxLevel,
			AllowNetwork: false,
		},
		Approval: ApprovalConfig{
			AutoApproveLowRisk: DefaultAutoApproveLowRisk,
			Interactive:        DefaultInteractive,
			Timeout:            DefaultApprovalTimeout,
		},
		Backup: BackupConfig{
			Root:        filepath.Join(".execcore", "backups"),
			MaxAgeDays:  DefaultBackupMaxAgeDays,
			MaxEntries:  DefaultBackupMaxEntries,
			SweepPeriod: time.Hour,
		},
		Audit: AuditConfig{
			Root: filepath.Join(".execcore", "audit"),
		},
		Logging: LoggingConfig{
			Root:     filepath.Join(".execcore", "logs"),
			MinLevel: "info",
		},
	}
}

// Load loads configuration from default locations with precedence: built-in
// defaults, then ~/.execcore/config.yaml, then ./.execcore/config.yaml.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		if err := mergeFile(cfg, filepath.Join(home, ".execcore", "config.yaml")); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	if err := mergeFile(cfg, filepath.Join(".", ".execcore", "config.yaml")); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file, merged over defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := mergeFile(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration for internally inconsistent values.
func (c *Config) Validate() error {
	switch c.Sandbox.Level {
	case "read-only", "workspace-write", "full-access":
	default:
		return fmt.Errorf("invalid sandbox level %q", c.Sandbox.Level)
	}
	if c.Backup.MaxAgeDays < 0 {
		return fmt.Errorf("backup.max_age_days must be >= 0")
	}
	if c.Backup.MaxEntries < 0 {
		return fmt.Errorf("backup.max_entries must be >= 0")
	}
	return nil
}
