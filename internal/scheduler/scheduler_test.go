package scheduler

import (
	"testing"

	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		jobs    []models.JobSpec
		wantErr bool
	}{
		{
			name: "valid dag",
			jobs: []models.JobSpec{
				{Name: "a"},
				{Name: "b", DependsOn: []string{"a"}},
			},
			wantErr: false,
		},
		{
			name: "unknown dependency",
			jobs: []models.JobSpec{
				{Name: "a", DependsOn: []string{"ghost"}},
			},
			wantErr: true,
		},
		{
			name: "cycle",
			jobs: []models.JobSpec{
				{Name: "a", DependsOn: []string{"b"}},
				{Name: "b", DependsOn: []string{"a"}},
			},
			wantErr: true,
		},
		{
			name: "self-reference",
			jobs: []models.JobSpec{
				{Name: "a", DependsOn: []string{"a"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&models.Plan{Jobs: tt.jobs})
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !merrors.Is(err, merrors.Validation) {
				t.Errorf("expected Validation kind, got %v", err)
			}
		})
	}
}

func TestTopologicalSortOrdering(t *testing.T) {
	jobs := []models.JobSpec{
		{Name: "c", DependsOn: []string{"a", "b"}},
		{Name: "a"},
		{Name: "b", DependsOn: []string{"a"}},
	}

	sorted, err := TopologicalSort(jobs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sorted) != 3 {
		t.Fatalf("got %d jobs, want 3", len(sorted))
	}

	pos := make(map[string]int, len(sorted))
	for i, j := range sorted {
		pos[j.Name] = i
	}
	if pos["a"] > pos["b"] || pos["b"] > pos["c"] {
		t.Errorf("expected order a, b, c; got positions %v", pos)
	}
}

func TestReadyJobsDAGOrdering(t *testing.T) {
	plan := &models.Plan{Jobs: []models.JobSpec{
		{Name: "a", Status: models.JobQueued},
		{Name: "b", Status: models.JobWaitingDeps, DependsOn: []string{"a"}},
	}}

	ready := ReadyJobs(plan, 0, 2)
	if len(ready) != 1 || ready[0].Name != "a" {
		t.Fatalf("expected only [a] ready, got %v", ready)
	}

	plan.Jobs[0].Status = models.JobMerged
	ready = ReadyJobs(plan, 0, 2)
	if len(ready) != 1 || ready[0].Name != "b" {
		t.Fatalf("expected only [b] ready after a merged, got %v", ready)
	}
}

func TestReadyJobsParallelCap(t *testing.T) {
	plan := &models.Plan{Jobs: []models.JobSpec{
		{Name: "j1", Status: models.JobQueued},
		{Name: "j2", Status: models.JobQueued},
		{Name: "j3", Status: models.JobQueued},
	}}

	ready := ReadyJobs(plan, 0, 2)
	if len(ready) != 2 {
		t.Fatalf("expected 2 ready under cap 2, got %d", len(ready))
	}
	if ready[0].Name != "j1" || ready[1].Name != "j2" {
		t.Fatalf("expected declaration-order tie-break [j1 j2], got %v", ready)
	}
}

func TestReadyJobsZeroMaxParallel(t *testing.T) {
	plan := &models.Plan{Jobs: []models.JobSpec{{Name: "a", Status: models.JobQueued}}}
	if ready := ReadyJobs(plan, 0, 0); len(ready) != 0 {
		t.Fatalf("expected no ready jobs with maxParallel=0, got %v", ready)
	}
}
