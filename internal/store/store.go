// Package store implements the State Store (spec.md §4.1): versioned,
// crash-atomic persistence of Plan and Job state, keyed by project identity.
// Writes go through filelock.AtomicWrite (temp file + rename, grounded on
// internal/filelock); read-modify-write cycles are serialized by the
// process-wide internal/lock mutex, per spec.md §4.2/§5.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/missionctl/missionctl/internal/filelock"
	"github.com/missionctl/missionctl/internal/lock"
	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
)

// planDoc and jobsDoc are the on-disk envelopes described in spec.md §6.
type planDoc struct {
	Version int          `json:"version"`
	Plan    *models.Plan `json:"plan"`
}

type jobsDoc struct {
	Version   int          `json:"version"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Jobs      []models.Job `json:"jobs"`
}

// Store is the State Store for one project.
type Store struct {
	Mutex *lock.Mutex
	Dir   string // <data-dir>/<project-id>/state
}

// New creates a Store rooted at <dataDir>/<projectID>/state, sharing mu with
// the caller's other mutex-guarded components (spec.md §4.2: the same
// mutex also serializes VC commands).
func New(mu *lock.Mutex, dataDir, projectID string) *Store {
	return &Store{Mutex: mu, Dir: filepath.Join(dataDir, projectID, "state")}
}

func (s *Store) planPath() string { return filepath.Join(s.Dir, "plan.json") }
func (s *Store) jobsPath() string { return filepath.Join(s.Dir, "jobs.json") }

// LoadPlan returns the persisted plan, or nil if none exists yet.
func (s *Store) LoadPlan(ctx context.Context) (*models.Plan, error) {
	return lock.WithLock(ctx, s.Mutex, func() (*models.Plan, error) {
		return s.loadPlanUnlocked()
	})
}

func (s *Store) loadPlanUnlocked() (*models.Plan, error) {
	data, err := os.ReadFile(s.planPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, merrors.Wrap(merrors.AdapterError, "read plan.json", err)
	}

	var doc planDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, merrors.Wrap(merrors.Validation, "plan.json is not valid JSON: "+s.planPath(), err)
	}
	migratePlanDoc(&doc)
	return doc.Plan, nil
}

func (s *Store) savePlanUnlocked(plan *models.Plan) error {
	doc := planDoc{Version: models.SchemaVersion, Plan: plan}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return merrors.Wrap(merrors.AdapterError, "marshal plan", err)
	}
	if err := filelock.AtomicWrite(s.planPath(), data); err != nil {
		return merrors.Wrap(merrors.AdapterError, "write plan.json", err)
	}
	return nil
}

// SavePlan persists plan in full.
func (s *Store) SavePlan(ctx context.Context, plan *models.Plan) error {
	return lock.WithLockErr(ctx, s.Mutex, func() error {
		return s.savePlanUnlocked(plan)
	})
}

// UpdatePlanFields loads the current plan, applies mutate to it under the
// mutex, and saves the result — the Go-idiomatic read-modify-write in place
// of spec.md's "(id, partial)" map-patch shape, preserving the same
// held-across-suspension guarantee (spec.md §5).
func (s *Store) UpdatePlanFields(ctx context.Context, mutate func(*models.Plan) error) error {
	return lock.WithLockErr(ctx, s.Mutex, func() error {
		plan, err := s.loadPlanUnlocked()
		if err != nil {
			return err
		}
		if plan == nil {
			return merrors.New(merrors.NotFound, "no active plan")
		}
		if err := mutate(plan); err != nil {
			return err
		}
		return s.savePlanUnlocked(plan)
	})
}

// UpdateJobSpec loads the current plan, applies mutate to the named
// JobSpec, and saves the plan.
func (s *Store) UpdateJobSpec(ctx context.Context, name string, mutate func(*models.JobSpec) error) error {
	return s.UpdatePlanFields(ctx, func(plan *models.Plan) error {
		spec := plan.JobByName(name)
		if spec == nil {
			return merrors.New(merrors.NotFound, fmt.Sprintf("job %q not found in plan", name))
		}
		return mutate(spec)
	})
}

// ClearPlan removes the persisted plan entirely (spec.md §4.10 cancelPlan).
func (s *Store) ClearPlan(ctx context.Context) error {
	return lock.WithLockErr(ctx, s.Mutex, func() error {
		return s.savePlanUnlocked(nil)
	})
}

// LoadJobs returns every persisted Job runtime record.
func (s *Store) LoadJobs(ctx context.Context) ([]models.Job, error) {
	return lock.WithLock(ctx, s.Mutex, func() ([]models.Job, error) {
		return s.loadJobsUnlocked()
	})
}

func (s *Store) loadJobsUnlocked() ([]models.Job, error) {
	data, err := os.ReadFile(s.jobsPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, merrors.Wrap(merrors.AdapterError, "read jobs.json", err)
	}

	var doc jobsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, merrors.Wrap(merrors.Validation, "jobs.json is not valid JSON: "+s.jobsPath(), err)
	}
	migrateJobsDoc(&doc)
	return doc.Jobs, nil
}

func (s *Store) saveJobsUnlocked(jobs []models.Job) error {
	doc := jobsDoc{Version: models.SchemaVersion, UpdatedAt: time.Now().UTC(), Jobs: jobs}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return merrors.Wrap(merrors.AdapterError, "marshal jobs", err)
	}
	if err := filelock.AtomicWrite(s.jobsPath(), data); err != nil {
		return merrors.Wrap(merrors.AdapterError, "write jobs.json", err)
	}
	return nil
}

// AddJob appends a new Job record. Returns Validation if id already exists.
func (s *Store) AddJob(ctx context.Context, job models.Job) error {
	return lock.WithLockErr(ctx, s.Mutex, func() error {
		jobs, err := s.loadJobsUnlocked()
		if err != nil {
			return err
		}
		for _, j := range jobs {
			if j.ID == job.ID {
				return merrors.New(merrors.Validation, fmt.Sprintf("job %q already exists", job.ID))
			}
		}
		jobs = append(jobs, job)
		return s.saveJobsUnlocked(jobs)
	})
}

// UpdateJob loads jobs, applies mutate to the one with id, and saves.
func (s *Store) UpdateJob(ctx context.Context, id string, mutate func(*models.Job) error) error {
	return lock.WithLockErr(ctx, s.Mutex, func() error {
		jobs, err := s.loadJobsUnlocked()
		if err != nil {
			return err
		}
		found := false
		for i := range jobs {
			if jobs[i].ID == id {
				if err := mutate(&jobs[i]); err != nil {
					return err
				}
				found = true
				break
			}
		}
		if !found {
			return merrors.New(merrors.NotFound, fmt.Sprintf("job %q not found", id))
		}
		return s.saveJobsUnlocked(jobs)
	})
}

// RemoveJob deletes the Job record with id. Idempotent: removing an absent
// job is not an error (spec.md §4.10 cleanup contract, §8 idempotence law).
func (s *Store) RemoveJob(ctx context.Context, id string) error {
	return lock.WithLockErr(ctx, s.Mutex, func() error {
		jobs, err := s.loadJobsUnlocked()
		if err != nil {
			return err
		}
		filtered := jobs[:0]
		for _, j := range jobs {
			if j.ID != id {
				filtered = append(filtered, j)
			}
		}
		return s.saveJobsUnlocked(filtered)
	})
}

// GetRunningJobs returns every Job currently in RunRunning status.
func (s *Store) GetRunningJobs(ctx context.Context) ([]models.Job, error) {
	return lock.WithLock(ctx, s.Mutex, func() ([]models.Job, error) {
		jobs, err := s.loadJobsUnlocked()
		if err != nil {
			return nil, err
		}
		var running []models.Job
		for _, j := range jobs {
			if j.Status == models.RunRunning {
				running = append(running, j)
			}
		}
		return running, nil
	})
}
