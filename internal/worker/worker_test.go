package worker

import (
	"context"
	"testing"
	"time"

	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
)

func drainUntil(t *testing.T, s *Supervisor, kind EventKind, jobID string, timeout time.Duration) Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-s.Events():
			if ev.JobID == jobID && ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event kind=%s job=%s", kind, jobID)
		}
	}
}

func TestLaunchAndCompleteSuccess(t *testing.T) {
	s := New(false)
	target, err := s.Launch(context.Background(), LaunchSpec{
		JobID: "job-1", Name: "a", WorktreePath: t.TempDir(),
		Command: "/bin/sh", Args: []string{"-c", "exit 0"},
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	drainUntil(t, s, EventStarted, "job-1", time.Second)
	drainUntil(t, s, EventCompleted, "job-1", 2*time.Second)

	code, ok := s.ExitCode(target)
	if !ok || code != 0 {
		t.Fatalf("ExitCode = %d, %v, want 0, true", code, ok)
	}

	alive, err := s.IsAlive(target)
	if err != nil {
		t.Fatalf("IsAlive: %v", err)
	}
	if alive {
		t.Fatal("expected process to be reported not alive after exit")
	}
}

func TestLaunchAndFail(t *testing.T) {
	s := New(false)
	_, err := s.Launch(context.Background(), LaunchSpec{
		JobID: "job-2", Name: "b", WorktreePath: t.TempDir(),
		Command: "/bin/sh", Args: []string{"-c", "exit 7"},
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	ev := drainUntil(t, s, EventFailed, "job-2", 2*time.Second)
	if ev.ExitCode == nil || *ev.ExitCode != 7 {
		t.Fatalf("ExitCode = %v, want 7", ev.ExitCode)
	}
}

func TestLaunchWindowPlacementRejectedWithoutOuterSession(t *testing.T) {
	s := New(false)
	_, err := s.Launch(context.Background(), LaunchSpec{
		JobID: "job-3", Placement: models.PlacementWindow,
		WorktreePath: t.TempDir(), Command: "/bin/sh", Args: []string{"-c", "exit 0"},
	})
	if !merrors.Is(err, merrors.PreconditionFailed) {
		t.Fatalf("expected PreconditionFailed, got %v", err)
	}
}

func TestKillIsIdempotent(t *testing.T) {
	s := New(false)
	target, err := s.Launch(context.Background(), LaunchSpec{
		JobID: "job-4", WorktreePath: t.TempDir(),
		Command: "/bin/sh", Args: []string{"-c", "sleep 5"},
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}

	if err := s.Kill(target); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	drainUntil(t, s, EventFailed, "job-4", 2*time.Second)

	if err := s.Kill(target); err != nil {
		t.Fatalf("second Kill should be a no-op, got: %v", err)
	}
}

func TestIsAliveUnknownTarget(t *testing.T) {
	s := New(false)
	if _, err := s.IsAlive("not-a-real-target"); err == nil {
		t.Fatal("expected error for malformed target")
	}
}
