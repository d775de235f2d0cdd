// Package worker implements the Worker Supervisor (spec.md §4.4): it starts
// an AI agent in a worktree and surfaces lifecycle events to the
// Reconciler. The terminal session supervisor and agent launcher proper are
// external collaborators referenced only via contract (spec.md §1); this
// package's Supervisor, which runs the agent as a local process, stands in
// for them, grounded on
// the teacher's internal/claude/invoker.go exec.CommandContext + clean-env
// launch idiom, generalized from "one CLI call" to "a supervised
// long-lived process".
package worker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
)

// EventKind tags a lifecycle Event pushed to the Reconciler.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventCompleted EventKind = "completed"
	EventFailed    EventKind = "failed"
)

// Event is a single Worker Supervisor lifecycle notification.
type Event struct {
	Kind     EventKind
	JobID    string
	ExitCode *int
}

// LaunchSpec is the named-options bundle accepted by Launch (spec.md §9
// "named config objects").
type LaunchSpec struct {
	JobID        string
	Name         string
	WorktreePath string
	Placement    models.JobPlacement
	Command      string
	Args         []string
}

// livenessProbeDelay is how long IsAlive waits before its single retry,
// matching spec.md §4.4/§5's "retries once with a short delay" policy.
var livenessProbeDelay = 500 * time.Millisecond

// Supervisor launches and tracks agent processes, one per job, and exposes
// their lifecycle as an Event stream consumed inline by the Reconciler (no
// fan-out, per spec.md §4.9).
type Supervisor struct {
	// OuterSession reports whether the caller is already inside an outer
	// terminal session, required for Placement = window (spec.md §4.4).
	OuterSession bool

	mu     sync.Mutex
	procs  map[string]*procState
	events chan Event
}

type procState struct {
	cmd      *exec.Cmd
	jobID    string
	exitCode *int
	done     bool
}

// New creates a Supervisor with a buffered event channel. Events() must be
// drained by the Reconciler to avoid blocking process-exit goroutines.
func New(outerSession bool) *Supervisor {
	return &Supervisor{
		OuterSession: outerSession,
		procs:        make(map[string]*procState),
		events:       make(chan Event, 64),
	}
}

// Events returns the channel the Reconciler drains in arrival order
// (spec.md §5 ordering guarantee (c)).
func (s *Supervisor) Events() <-chan Event { return s.events }

// Launch starts spec.Command in spec.WorktreePath and returns an opaque
// terminalTarget tagging the job id (spec.md §9 open question 1, resolved:
// always tag, so cross-process cleanup(all) can find it later).
func (s *Supervisor) Launch(ctx context.Context, spec LaunchSpec) (string, error) {
	if spec.Placement == models.PlacementWindow && !s.OuterSession {
		return "", merrors.New(merrors.PreconditionFailed, "window placement requires an outer session")
	}

	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.WorktreePath
	cmd.Env = cleanEnv(spec.JobID)

	if err := cmd.Start(); err != nil {
		return "", merrors.Wrap(merrors.AdapterError, "launch worker", err)
	}

	target := fmt.Sprintf("%s::%d", spec.JobID, cmd.Process.Pid)
	state := &procState{cmd: cmd, jobID: spec.JobID}

	s.mu.Lock()
	s.procs[target] = state
	s.mu.Unlock()

	go s.wait(spec.JobID, target, state)

	s.events <- Event{Kind: EventStarted, JobID: spec.JobID}
	return target, nil
}

func (s *Supervisor) wait(jobID, target string, state *procState) {
	err := state.cmd.Wait()

	s.mu.Lock()
	state.done = true
	code := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	state.exitCode = &code
	s.mu.Unlock()

	if code == 0 {
		s.events <- Event{Kind: EventCompleted, JobID: jobID, ExitCode: &code}
	} else {
		s.events <- Event{Kind: EventFailed, JobID: jobID, ExitCode: &code}
	}
}

// cleanEnv builds a minimal, predictable environment for the worker
// process, tagged with the job id (MISSIONCTL_JOB_ID) so any terminal
// provider can title/tag its pane for cross-process cleanup, grounded on
// invoker.go's SetCleanEnv pattern.
func cleanEnv(jobID string) []string {
	env := []string{
		"PATH=" + os.Getenv("PATH"),
		"HOME=" + os.Getenv("HOME"),
		"MISSIONCTL_JOB_ID=" + jobID,
	}
	return env
}

// Kill terminates the process behind target. Killing an already-dead
// process is not an error.
func (s *Supervisor) Kill(target string) error {
	pid, ok := pidFromTarget(target)
	if !ok {
		return merrors.New(merrors.NotFound, "malformed terminal target: "+target)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	if err := proc.Kill(); err != nil && !merrors.IsTransientText(err.Error()) {
		return merrors.Wrap(merrors.AdapterError, "kill worker", err)
	}
	return nil
}

// IsAlive reports whether the process behind target is still running. It
// retries once after livenessProbeDelay before concluding "not alive", and
// only treats errors matching well-known "not found" patterns as a genuine
// negative result; other errors propagate (spec.md §4.4/§5).
func (s *Supervisor) IsAlive(target string) (bool, error) {
	alive, err := s.probeOnce(target)
	if err == nil {
		return alive, nil
	}
	if !merrors.IsTransientText(err.Error()) {
		return false, err
	}

	time.Sleep(livenessProbeDelay)
	alive, err = s.probeOnce(target)
	if err != nil {
		if merrors.IsTransientText(err.Error()) {
			return false, nil
		}
		return false, err
	}
	return alive, nil
}

func (s *Supervisor) probeOnce(target string) (bool, error) {
	s.mu.Lock()
	state, tracked := s.procs[target]
	s.mu.Unlock()
	if tracked {
		return !state.done, nil
	}

	pid, ok := pidFromTarget(target)
	if !ok {
		return false, merrors.New(merrors.NotFound, "malformed terminal target: "+target)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, fmt.Errorf("process not found: %w", err)
	}
	if err := proc.Signal(syscallSignalZero()); err != nil {
		return false, fmt.Errorf("probe worker process: %w", err)
	}
	return true, nil
}

// ExitCode returns the process's exit code once it has terminated.
func (s *Supervisor) ExitCode(target string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.procs[target]
	if !ok || !state.done || state.exitCode == nil {
		return 0, false
	}
	return *state.exitCode, true
}

func pidFromTarget(target string) (int, bool) {
	idx := strings.LastIndex(target, "::")
	if idx < 0 {
		return 0, false
	}
	pid, err := strconv.Atoi(target[idx+2:])
	if err != nil {
		return 0, false
	}
	return pid, true
}
