package reconciler

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/missionctl/missionctl/internal/checkpoint"
	"github.com/missionctl/missionctl/internal/lock"
	"github.com/missionctl/missionctl/internal/mergetrain"
	"github.com/missionctl/missionctl/internal/models"
	"github.com/missionctl/missionctl/internal/notify"
	"github.com/missionctl/missionctl/internal/store"
	"github.com/missionctl/missionctl/internal/vc"
	"github.com/missionctl/missionctl/internal/worker"
)

// fakeGitRunner answers vc commands by inspecting the first argument only,
// so tests don't need to know the exact branch names the adapter computes.
type fakeGitRunner struct{}

func (fakeGitRunner) Run(ctx context.Context, dir string, args ...string) (string, string, int, error) {
	if len(args) == 0 {
		return "", "", 0, nil
	}
	switch args[0] {
	case "status":
		return "", "", 0, nil
	case "rev-parse":
		return "deadbeef", "", 0, nil
	case "rebase", "merge":
		return "", "", 0, nil
	default:
		return "", "", 0, nil
	}
}

type fakeShellRunner struct{}

func (fakeShellRunner) Run(ctx context.Context, dir, command string) (string, int, error) {
	return "", 0, nil
}

type fakePR struct {
	url string
}

func (f *fakePR) CreatePR(ctx context.Context, plan *models.Plan) (string, error) {
	return f.url, nil
}

func newTestReconciler(t *testing.T) (*Reconciler, *store.Store) {
	t.Helper()
	mu := lock.New()
	st := store.New(mu, t.TempDir(), "proj")
	adapter := &vc.Adapter{Mutex: mu, Runner: fakeGitRunner{}, RepoRoot: t.TempDir()}
	train := mergetrain.New(adapter, fakeShellRunner{}, nil, "")
	r := &Reconciler{
		Store:  st,
		VC:     adapter,
		Worker: worker.New(false),
		Train:  train,
		Notify: notify.New(nil),
		PR:     &fakePR{url: "https://example.test/pr/1"},
	}
	return r, st
}

func TestTickNoActivePlanIsNoOp(t *testing.T) {
	r, _ := newTestReconciler(t)
	if err := r.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
}

func TestTickSupervisorPausesAtPreMerge(t *testing.T) {
	r, st := newTestReconciler(t)
	ctx := context.Background()

	plan := &models.Plan{
		ID: "p1", Mode: models.ModeSupervisor, Status: models.PlanRunning,
		Checkpoint:              models.CheckpointNone,
		IntegrationBranch:       "mc/integration-p1",
		IntegrationWorktreePath: t.TempDir(),
		Jobs: []models.JobSpec{
			{Name: "a", Status: models.JobCompleted},
		},
	}
	if err := st.SavePlan(ctx, plan); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	if err := r.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	got, err := st.LoadPlan(ctx)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if got.Checkpoint != models.CheckpointPreMerge || got.Status != models.PlanPaused {
		t.Fatalf("expected pause at pre_merge, got status=%s checkpoint=%s", got.Status, got.Checkpoint)
	}
	job := got.JobByName("a")
	if job.Status != models.JobReadyToMerge {
		t.Fatalf("expected job to stop at ready_to_merge, got %s", job.Status)
	}
	if !job.MergeOrderAssigned {
		t.Fatalf("expected mergeOrder to be assigned")
	}
}

func TestTickAutopilotMergesAndCompletesPlan(t *testing.T) {
	r, st := newTestReconciler(t)
	ctx := context.Background()

	plan := &models.Plan{
		ID: "p1", Mode: models.ModeAutopilot, Status: models.PlanRunning,
		Checkpoint:              models.CheckpointNone,
		IntegrationBranch:       "mc/integration-p1",
		IntegrationWorktreePath: t.TempDir(),
		Jobs: []models.JobSpec{
			{Name: "a", Status: models.JobCompleted, Branch: "mc/a", WorktreePath: t.TempDir()},
		},
	}
	if err := st.SavePlan(ctx, plan); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	if err := r.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	got, err := st.LoadPlan(ctx)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if got.Status != models.PlanCompleted {
		t.Fatalf("expected plan completed, got %s (checkpoint %s)", got.Status, got.Checkpoint)
	}
	if got.PRUrl != "https://example.test/pr/1" {
		t.Fatalf("expected PR url to be recorded, got %q", got.PRUrl)
	}
	job := got.JobByName("a")
	if job.Status != models.JobMerged {
		t.Fatalf("expected job merged, got %s", job.Status)
	}
}

func TestCheckFailurePropagatesJobFailure(t *testing.T) {
	r, _ := newTestReconciler(t)
	plan := &models.Plan{
		Status: models.PlanRunning,
		Jobs:   []models.JobSpec{{Name: "a", Status: models.JobFailed}},
	}
	r.checkFailure(plan)
	if plan.Status != models.PlanFailed {
		t.Fatalf("expected plan failed, got %s", plan.Status)
	}
}

func TestCheckFailureIgnoresPausedPlan(t *testing.T) {
	r, _ := newTestReconciler(t)
	plan := &models.Plan{
		Status:     models.PlanPaused,
		Checkpoint: models.CheckpointOnError,
		Jobs:       []models.JobSpec{{Name: "a", Status: models.JobFailed}},
	}
	r.checkFailure(plan)
	if plan.Status != models.PlanPaused {
		t.Fatalf("expected plan to remain paused, got %s", plan.Status)
	}
}

func TestEnqueueTrainCandidatesPassThroughSkipsRepeatedPause(t *testing.T) {
	r, _ := newTestReconciler(t)
	plan := &models.Plan{
		Mode: models.ModeSupervisor,
		Jobs: []models.JobSpec{
			{Name: "a", Status: models.JobReadyToMerge, MergeOrderAssigned: true, MergeOrder: 0},
		},
	}
	setContext(plan, CtxPassThroughJob, "a")

	paused := r.enqueueTrainCandidates(plan)
	if paused {
		t.Fatalf("expected pass-through job to proceed without pausing")
	}
	if plan.Jobs[0].Status != models.JobMerging {
		t.Fatalf("expected job to advance to merging, got %s", plan.Jobs[0].Status)
	}
	if _, ok := stringFromContext(plan, CtxPassThroughJob); ok {
		t.Fatalf("expected pass-through marker to be consumed")
	}
}

func TestApplyWorkerEventsMarksJobFailed(t *testing.T) {
	r, st := newTestReconciler(t)
	ctx := context.Background()

	plan := &models.Plan{
		ID: "p1", Mode: models.ModeSupervisor, Status: models.PlanRunning,
		Jobs: []models.JobSpec{{Name: "a", Status: models.JobRunning}},
	}
	if err := st.SavePlan(ctx, plan); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if err := st.AddJob(ctx, models.Job{ID: "a", Name: "a", Status: models.RunRunning}); err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	target, err := r.Worker.Launch(ctx, worker.LaunchSpec{
		JobID: "a", Name: "a", WorktreePath: ".", Placement: models.PlacementSession,
		Command: "/bin/sh", Args: []string{"-c", "exit 9"},
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	_ = target

	deadline := time.Now().Add(2 * time.Second)
	var gotFailure bool
	for time.Now().Before(deadline) {
		if err := r.Tick(ctx); err != nil {
			t.Fatalf("Tick: %v", err)
		}
		got, err := st.LoadPlan(ctx)
		if err != nil {
			t.Fatalf("LoadPlan: %v", err)
		}
		if job := got.JobByName("a"); job != nil && job.Status == models.JobFailed {
			gotFailure = true
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if !gotFailure {
		t.Fatalf("expected job to transition to failed after worker exit")
	}
}

func TestFailOrPauseAutopilotFailsOnError(t *testing.T) {
	r, _ := newTestReconciler(t)
	plan := &models.Plan{Mode: models.ModeAutopilot, Status: models.PlanRunning}
	r.failOrPause(plan)
	if plan.Status != models.PlanFailed {
		t.Fatalf("expected autopilot to fail on merge-train error, got %s", plan.Status)
	}
}

func TestFailOrPauseSupervisorEntersOnError(t *testing.T) {
	r, _ := newTestReconciler(t)
	plan := &models.Plan{Mode: models.ModeSupervisor, Status: models.PlanRunning}
	r.failOrPause(plan)
	if plan.Checkpoint != models.CheckpointOnError || plan.Status != models.PlanPaused {
		t.Fatalf("expected supervisor to pause at on_error, got status=%s checkpoint=%s", plan.Status, plan.Checkpoint)
	}
	if err := checkpoint.Clear(plan, models.CheckpointOnError); err != nil {
		t.Fatalf("Clear: %v", err)
	}
}

func TestJoinFiles(t *testing.T) {
	if got := joinFiles(nil); got != "" {
		t.Fatalf("expected empty string for nil, got %q", got)
	}
	if got := joinFiles([]string{"a.go", "b.go"}); got != "a.go, b.go" {
		t.Fatalf("unexpected join: %q", got)
	}
}

func TestReconcilerTickCoalescesConcurrentCalls(t *testing.T) {
	r, _ := newTestReconciler(t)
	r.reconciling.Store(true)
	if err := r.Tick(context.Background()); err != nil {
		t.Fatalf("expected coalesced Tick to return nil, got %v", err)
	}
	if !strings.Contains(fmt.Sprintf("%v", r.reconciling.Load()), "true") {
		t.Fatalf("expected coalesced tick to leave the flag untouched")
	}
}
