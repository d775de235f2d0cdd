package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/missionctl/missionctl/internal/lock"
	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(lock.New(), t.TempDir(), "proj")
}

func TestLoadPlanMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)
	plan, err := s.LoadPlan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan != nil {
		t.Fatalf("expected nil plan, got %+v", plan)
	}
}

func TestSaveAndLoadPlanRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plan := &models.Plan{ID: "p1", Name: "demo", Mode: models.ModeAutopilot, Status: models.PlanRunning, CreatedAt: time.Now().UTC()}
	if err := s.SavePlan(ctx, plan); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	got, err := s.LoadPlan(ctx)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if got == nil || got.ID != "p1" || got.Name != "demo" {
		t.Fatalf("got %+v, want plan p1/demo", got)
	}

	// the on-disk file should contain the envelope, not the bare struct
	data, err := os.ReadFile(s.planPath())
	if err != nil {
		t.Fatal(err)
	}
	var doc planDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Version != models.SchemaVersion || doc.Plan == nil || doc.Plan.ID != "p1" {
		t.Fatalf("on-disk doc = %s, want {version: %d, plan: p1}", data, models.SchemaVersion)
	}
}

func TestUpdatePlanFieldsNoActivePlan(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdatePlanFields(context.Background(), func(p *models.Plan) error { return nil })
	if !merrors.Is(err, merrors.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestUpdateJobSpecTransitionsStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	plan := &models.Plan{ID: "p1", Jobs: []models.JobSpec{{Name: "a", Status: models.JobQueued}}}
	if err := s.SavePlan(ctx, plan); err != nil {
		t.Fatal(err)
	}

	err := s.UpdateJobSpec(ctx, "a", func(spec *models.JobSpec) error {
		spec.Status = models.JobRunning
		return nil
	})
	if err != nil {
		t.Fatalf("UpdateJobSpec: %v", err)
	}

	got, err := s.LoadPlan(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.JobByName("a").Status != models.JobRunning {
		t.Fatalf("status = %v, want running", got.JobByName("a").Status)
	}
}

func TestJobLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	job := models.Job{ID: "j1", Name: "a", Status: models.RunRunning, CreatedAt: time.Now().UTC()}
	if err := s.AddJob(ctx, job); err != nil {
		t.Fatalf("AddJob: %v", err)
	}
	if err := s.AddJob(ctx, job); !merrors.Is(err, merrors.Validation) {
		t.Fatalf("expected Validation on duplicate add, got %v", err)
	}

	running, err := s.GetRunningJobs(ctx)
	if err != nil || len(running) != 1 {
		t.Fatalf("GetRunningJobs = %v, %v", running, err)
	}

	if err := s.UpdateJob(ctx, "j1", func(j *models.Job) error {
		j.Status = models.RunCompleted
		return nil
	}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}

	running, err = s.GetRunningJobs(ctx)
	if err != nil || len(running) != 0 {
		t.Fatalf("expected 0 running after completion, got %v, %v", running, err)
	}

	if err := s.RemoveJob(ctx, "j1"); err != nil {
		t.Fatalf("RemoveJob: %v", err)
	}
	// idempotent
	if err := s.RemoveJob(ctx, "j1"); err != nil {
		t.Fatalf("RemoveJob should be idempotent, got: %v", err)
	}

	jobs, err := s.LoadJobs(ctx)
	if err != nil || len(jobs) != 0 {
		t.Fatalf("expected empty jobs after removal, got %v, %v", jobs, err)
	}
}
