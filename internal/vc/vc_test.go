package vc

import (
	"context"
	"strings"
	"testing"

	"github.com/missionctl/missionctl/internal/lock"
)

// scriptedRunner replays canned responses keyed by the joined command args,
// in the style of the fakes the teacher injects via CommandRunner for
// testing git_checkpointer.go.
type scriptedRunner struct {
	responses map[string]response
	calls     []string
}

type response struct {
	stdout string
	stderr string
	code   int
	err    error
}

func (r *scriptedRunner) Run(ctx context.Context, dir string, args ...string) (string, string, int, error) {
	key := strings.Join(args, " ")
	r.calls = append(r.calls, key)
	if resp, ok := r.responses[key]; ok {
		return resp.stdout, resp.stderr, resp.code, resp.err
	}
	return "", "", 0, nil
}

func TestAdapterRebaseConflict(t *testing.T) {
	runner := &scriptedRunner{responses: map[string]response{
		"rebase main": {stderr: "CONFLICT (content): Merge conflict in a.go", code: 1},
	}}
	a := &Adapter{Mutex: lock.New(), Runner: runner, RepoRoot: "/repo"}

	conflicted, files, err := a.Rebase(context.Background(), "/repo/wt", "main")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !conflicted {
		t.Fatal("expected conflicted = true")
	}
	if len(files) != 1 || files[0] != "a.go" {
		t.Fatalf("files = %v, want [a.go]", files)
	}
	if runner.calls[len(runner.calls)-1] != "rebase --abort" {
		t.Fatalf("expected rebase --abort to run last, calls = %v", runner.calls)
	}
}

func TestAdapterMergeCleanFastForward(t *testing.T) {
	runner := &scriptedRunner{responses: map[string]response{}}
	a := &Adapter{Mutex: lock.New(), Runner: runner, RepoRoot: "/repo"}

	conflicted, _, err := a.Merge(context.Background(), "/repo/wt", "mc/a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conflicted {
		t.Fatal("expected conflicted = false")
	}
}

func TestAdapterIsClean(t *testing.T) {
	runner := &scriptedRunner{responses: map[string]response{
		"status --porcelain": {stdout: ""},
	}}
	a := &Adapter{Mutex: lock.New(), Runner: runner, RepoRoot: "/repo"}

	clean, err := a.IsClean(context.Background(), "/repo/wt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !clean {
		t.Fatal("expected clean = true")
	}
}

func TestParseWorktreeList(t *testing.T) {
	porcelain := "worktree /repo\nHEAD abc123\nbranch refs/heads/main\n\n" +
		"worktree /repo/wt-a\nHEAD def456\nbranch refs/heads/mc/a\n"

	got := parseWorktreeList(porcelain)
	if len(got) != 2 {
		t.Fatalf("got %d worktrees, want 2", len(got))
	}
	if !got[0].IsMain {
		t.Fatal("expected first worktree to be marked main")
	}
	if got[1].Branch != "mc/a" {
		t.Errorf("got[1].Branch = %q, want mc/a", got[1].Branch)
	}
}
