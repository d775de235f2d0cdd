package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DataDirEnvVar overrides the resolved data directory root, analogous to
// the teacher's CONDUCTOR_HOME (conductor_home.go).
const DataDirEnvVar = "MISSIONCTL_DATA_DIR"

// GitCommonDirFunc runs a VC command and returns its stdout. Callers
// typically pass a closure over vc.Adapter.RunVC; this is declared as a
// plain func type (rather than an interface naming vc.Adapter) so config
// does not need to import vc's full surface.
type GitCommonDirFunc func(ctx context.Context, cwd string, args ...string) (stdout string, err error)

// DataRoot resolves the data-directory root, in priority order:
//  1. MISSIONCTL_DATA_DIR environment variable
//  2. Config.DataDir
//  3. XDG-style default: $XDG_DATA_HOME/missionctl, or ~/.local/share/missionctl
//
// The directory is created if absent, mirroring GetConductorHome's
// create-on-resolve behavior.
func (c *Config) DataRoot() (string, error) {
	if env := os.Getenv(DataDirEnvVar); env != "" {
		return ensureDir(env)
	}
	if c.DataDir != "" {
		return ensureDir(c.DataDir)
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return ensureDir(filepath.Join(xdg, "missionctl"))
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return ensureDir(filepath.Join(home, ".local", "share", "missionctl"))
}

func ensureDir(path string) (string, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create data directory %s: %w", path, err)
	}
	return path, nil
}

// ProjectID derives the project identity from the VC repository's common
// directory (spec.md §6): the shared .git directory across linked
// worktrees, stripped of any trailing "worktrees/<name>" segment, yielding
// the repository root's basename. If the VC lookup fails (not a repo, or no
// runner available), it falls back to the basename of cwd — the same
// fallback shape as conductor_home.go's cwd fallback, generalized from
// "find repo root" to "find repo identity".
func ProjectID(ctx context.Context, runVC GitCommonDirFunc, cwd string) (string, error) {
	if runVC != nil {
		if out, err := runVC(ctx, cwd, "rev-parse", "--git-common-dir"); err == nil {
			commonDir := strings.TrimSpace(out)
			if !filepath.IsAbs(commonDir) {
				commonDir = filepath.Join(cwd, commonDir)
			}
			return projectIDFromCommonDir(commonDir), nil
		}
	}

	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("resolve project id: %w", err)
	}
	return filepath.Base(abs), nil
}

// projectIDFromCommonDir strips a trailing ".git" and any
// "worktrees/<name>" suffix, then returns the basename of what remains.
func projectIDFromCommonDir(commonDir string) string {
	dir := filepath.Clean(commonDir)

	if idx := strings.Index(dir, string(filepath.Separator)+"worktrees"+string(filepath.Separator)); idx >= 0 {
		dir = dir[:idx]
	}
	dir = strings.TrimSuffix(dir, string(filepath.Separator)+".git")
	dir = strings.TrimSuffix(dir, ".git")

	return filepath.Base(dir)
}
