package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxParallel != DefaultMaxParallel {
		t.Errorf("MaxParallel = %d, want %d", cfg.MaxParallel, DefaultMaxParallel)
	}
	if cfg.DefaultMode != DefaultMode {
		t.Errorf("DefaultMode = %q, want %q", cfg.DefaultMode, DefaultMode)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missionctl.yaml")
	contents := "maxParallel: 8\ndefaultMode: autopilot\ntestCommand: go test ./...\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxParallel != 8 {
		t.Errorf("MaxParallel = %d, want 8", cfg.MaxParallel)
	}
	if cfg.DefaultMode != "autopilot" {
		t.Errorf("DefaultMode = %q, want autopilot", cfg.DefaultMode)
	}
	if cfg.TestCommand != "go test ./..." {
		t.Errorf("TestCommand = %q", cfg.TestCommand)
	}
}

func TestReconcileIntervalDuration(t *testing.T) {
	cfg := Default()
	if got := cfg.ReconcileIntervalDuration(); got != DefaultReconcileInterval {
		t.Errorf("ReconcileIntervalDuration() = %v, want %v", got, DefaultReconcileInterval)
	}

	cfg.ReconcileInterval = "not-a-duration"
	if got := cfg.ReconcileIntervalDuration(); got != DefaultReconcileInterval {
		t.Errorf("ReconcileIntervalDuration() with bad value = %v, want default", got)
	}
}

func TestDataRootEnvOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom")
	t.Setenv(DataDirEnvVar, dir)

	cfg := Default()
	got, err := cfg.DataRoot()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != dir {
		t.Errorf("DataRoot() = %q, want %q", got, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected data dir to be created: %v", err)
	}
}

func TestProjectIDFromCommonDir(t *testing.T) {
	tests := []struct {
		commonDir string
		want      string
	}{
		{"/home/u/repo/.git", "repo"},
		{"/home/u/repo/.git/worktrees/job-a", "repo"},
	}
	for _, tt := range tests {
		if got := projectIDFromCommonDir(tt.commonDir); got != tt.want {
			t.Errorf("projectIDFromCommonDir(%q) = %q, want %q", tt.commonDir, got, tt.want)
		}
	}
}
