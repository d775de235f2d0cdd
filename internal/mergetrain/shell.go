package mergetrain

import (
	"context"
	"os/exec"
)

// ShellRunner abstracts shell command execution for the test phase
// (spec.md §4.6 step 4), grounded on the teacher's
// internal/executor/preflight.go ShellCommandRunner ("sh -c" + combined
// output), generalized to also report the exit code.
type ShellRunner interface {
	Run(ctx context.Context, dir, command string) (output string, exitCode int, err error)
}

// DefaultShellRunner executes commands via `sh -c` in the given directory.
type DefaultShellRunner struct{}

// Run executes command via sh -c, returning combined stdout/stderr.
func (DefaultShellRunner) Run(ctx context.Context, dir, command string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir

	output, err := cmd.CombinedOutput()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(output), exitErr.ExitCode(), nil
		}
		return string(output), -1, err
	}
	return string(output), 0, nil
}
