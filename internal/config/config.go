// Package config loads Mission Control's project configuration and
// resolves the data directory and project identity described in spec.md
// §6. It follows the teacher's `internal/config` convention of small
// yaml-tagged structs with a Load function and sensible defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the project configuration loaded from YAML. DefaultMode is kept
// string-typed here rather than models.Mode to avoid a config → models
// import for a single field.
type Config struct {
	// MaxParallel caps concurrently running jobs across the active plan
	// (spec.md §4.5, §8 property 2). Zero means "use DefaultMaxParallel".
	MaxParallel int `yaml:"maxParallel"`

	// DefaultMode names a plan mode (autopilot, copilot, or supervisor). It
	// is loaded but not read when a plan starts: a plan file without a mode
	// runs in supervisor mode.
	DefaultMode string `yaml:"defaultMode"`

	// SetupCommands run in the integration worktree before TestCommand
	// during merge-train test phase (spec.md §4.6 step 4).
	SetupCommands []string `yaml:"setupCommands"`

	// TestCommand is the single command the merge train runs after setup;
	// empty disables the test phase.
	TestCommand string `yaml:"testCommand"`

	// ReconcileInterval is a reconcile period, parsed with
	// time.ParseDuration. No periodic timer drives the Reconciler; ticks
	// run only when a tool call or the merge verb invokes Tick.
	ReconcileInterval string `yaml:"reconcileInterval"`

	// DataDir overrides the default XDG-style data directory root.
	DataDir string `yaml:"dataDir"`

	// SymlinkDirs and CopyFiles are the default worktree post-create hooks
	// (spec.md §4.3) applied when a launch request does not override them.
	SymlinkDirs []string `yaml:"symlinkDirs"`
	CopyFiles   []string `yaml:"copyFiles"`
}

const (
	// DefaultMaxParallel is used when MaxParallel is unset or zero.
	DefaultMaxParallel = 4

	// DefaultReconcileInterval matches spec.md §4.8's stated default of 10s.
	DefaultReconcileInterval = 10 * time.Second

	// DefaultMode matches the teacher's "safest default first" convention.
	DefaultMode = "supervisor"
)

// Default returns a Config populated with Mission Control's defaults.
func Default() *Config {
	return &Config{
		MaxParallel:       DefaultMaxParallel,
		DefaultMode:       DefaultMode,
		ReconcileInterval: DefaultReconcileInterval.String(),
	}
}

// Load reads a YAML config file at path, falling back to Default() fields
// for anything the file leaves zero-valued. A missing file is not an error;
// it yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if parsed.MaxParallel > 0 {
		cfg.MaxParallel = parsed.MaxParallel
	}
	if parsed.DefaultMode != "" {
		cfg.DefaultMode = parsed.DefaultMode
	}
	if parsed.TestCommand != "" {
		cfg.TestCommand = parsed.TestCommand
	}
	if len(parsed.SetupCommands) > 0 {
		cfg.SetupCommands = parsed.SetupCommands
	}
	if parsed.ReconcileInterval != "" {
		cfg.ReconcileInterval = parsed.ReconcileInterval
	}
	if parsed.DataDir != "" {
		cfg.DataDir = parsed.DataDir
	}
	if len(parsed.SymlinkDirs) > 0 {
		cfg.SymlinkDirs = parsed.SymlinkDirs
	}
	if len(parsed.CopyFiles) > 0 {
		cfg.CopyFiles = parsed.CopyFiles
	}

	return cfg, nil
}

// ReconcileIntervalDuration parses ReconcileInterval, falling back to
// DefaultReconcileInterval on an empty or malformed value.
func (c *Config) ReconcileIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.ReconcileInterval)
	if err != nil || d <= 0 {
		return DefaultReconcileInterval
	}
	return d
}
