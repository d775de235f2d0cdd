// Package tools implements the Tool Surface (spec.md §4.10): the small set
// of mutating verbs external callers (CLI, any future control surface) use
// to drive Mission Control, plus the pure-reader reporting verbs. Grounded
// on the teacher's internal/cmd/*.go convention — one thin entry point per
// verb delegating to a service type — generalized from cobra RunE
// functions directly mutating globals into plain methods on Service so the
// same logic can be wired into cobra (internal/cli) or called from tests
// without a CLI harness.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/missionctl/missionctl/internal/checkpoint"
	"github.com/missionctl/missionctl/internal/config"
	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
	"github.com/missionctl/missionctl/internal/notify"
	"github.com/missionctl/missionctl/internal/reconciler"
	"github.com/missionctl/missionctl/internal/scheduler"
	"github.com/missionctl/missionctl/internal/store"
	"github.com/missionctl/missionctl/internal/vc"
	"github.com/missionctl/missionctl/internal/worker"

	"github.com/google/uuid"
)

// TerminalProvider is the out-of-scope "terminal multiplexer" collaborator
// (spec.md §1 Non-goals): capture and attach are delegated to it by opaque
// terminalTarget. A nil provider makes Capture/Attach return NotFound.
type TerminalProvider interface {
	CapturePane(target string) (string, error)
	AttachCommand(target string) (string, error)
}

// Service is the Tool Surface: every mutating method acquires whatever
// locks its collaborators need and, where the contract requires it, kicks
// the Reconciler afterward (spec.md §4.8 trigger (c)).
type Service struct {
	Store      *store.Store
	VC         *vc.Adapter
	Worker     *worker.Supervisor
	Reconciler *reconciler.Reconciler
	Notify     *notify.Notifier
	Config     *config.Config
	Terminal   TerminalProvider
	DataDir    string
}

// LaunchArgs is the named-options bundle accepted by Launch.
type LaunchArgs struct {
	Name      string
	Prompt    string
	Placement models.JobPlacement
}

// Launch implements spec.md §4.10's launch contract: reject a duplicate
// name, create a worktree, launch the worker, persist the Job record.
func (s *Service) Launch(ctx context.Context, args LaunchArgs) (*models.Job, error) {
	existing, err := s.Store.LoadJobs(ctx)
	if err != nil {
		return nil, err
	}
	for _, j := range existing {
		if j.Name == args.Name {
			return nil, merrors.New(merrors.Validation, fmt.Sprintf("job %q already exists", args.Name))
		}
	}

	branch := vc.JobBranch(args.Name)
	hooks := vc.PostCreateHooks{}
	if s.Config != nil {
		hooks.SymlinkDirs = s.Config.SymlinkDirs
		hooks.CopyFiles = s.Config.CopyFiles
	}

	worktreePath, err := s.VC.CreateWorktree(ctx, branch, hooks)
	if err != nil {
		return nil, err
	}

	placement := args.Placement
	if placement == "" {
		placement = models.PlacementSession
	}

	target, err := s.Worker.Launch(ctx, worker.LaunchSpec{
		JobID: args.Name, Name: args.Name, WorktreePath: worktreePath,
		Placement: placement, Command: "missionctl-agent", Args: []string{"--prompt", args.Prompt},
	})
	if err != nil {
		_ = s.VC.RemoveWorktree(ctx, worktreePath, true)
		return nil, err
	}

	job := models.Job{
		ID: args.Name, Name: args.Name, WorktreePath: worktreePath, Branch: branch,
		TerminalTarget: target, Placement: placement, Status: models.RunRunning,
		Prompt: args.Prompt, CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.AddJob(ctx, job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Kill implements spec.md §4.10's kill contract: transition the job to
// stopped and kill its worker, preserving the worktree.
func (s *Service) Kill(ctx context.Context, name string, force bool) error {
	jobs, err := s.Store.LoadJobs(ctx)
	if err != nil {
		return err
	}
	var job *models.Job
	for i := range jobs {
		if jobs[i].Name == name {
			job = &jobs[i]
			break
		}
	}
	if job == nil {
		return merrors.New(merrors.NotFound, fmt.Sprintf("job %q not found", name))
	}

	if err := s.Worker.Kill(job.TerminalTarget); err != nil && !force {
		return err
	}

	return s.Store.UpdateJob(ctx, job.ID, func(j *models.Job) error {
		j.Status = models.RunStopped
		now := time.Now().UTC()
		j.CompletedAt = &now
		return nil
	})
}

// Cleanup implements spec.md §4.10's cleanup contract. name == "" with
// all == true cleans every non-running job; a named cleanup of a running
// job is refused.
func (s *Service) Cleanup(ctx context.Context, name string, all bool, deleteBranch bool) error {
	jobs, err := s.Store.LoadJobs(ctx)
	if err != nil {
		return err
	}

	if all {
		for _, j := range jobs {
			if j.Status == models.RunRunning {
				continue
			}
			if err := s.cleanupOne(ctx, j, deleteBranch); err != nil {
				return err
			}
		}
		return nil
	}

	for _, j := range jobs {
		if j.Name != name {
			continue
		}
		if j.Status == models.RunRunning {
			return merrors.New(merrors.PreconditionFailed, fmt.Sprintf("job %q is running", name))
		}
		return s.cleanupOne(ctx, j, deleteBranch)
	}
	return merrors.New(merrors.NotFound, fmt.Sprintf("job %q not found", name))
}

func (s *Service) cleanupOne(ctx context.Context, job models.Job, deleteBranch bool) error {
	if err := s.VC.RemoveWorktree(ctx, job.WorktreePath, true); err != nil {
		return err
	}
	if deleteBranch && job.Branch != "" {
		if err := s.VC.DeleteBranch(ctx, job.Branch); err != nil {
			return err
		}
	}
	return s.Store.RemoveJob(ctx, job.ID)
}

// StartPlan implements spec.md §4.10's startPlan contract.
func (s *Service) StartPlan(ctx context.Context, plan *models.Plan) (*models.Plan, error) {
	if err := scheduler.Validate(plan); err != nil {
		return nil, err
	}

	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	plan.Status = models.PlanPending
	plan.Checkpoint = models.CheckpointNone
	plan.CreatedAt = time.Now().UTC()

	branch, worktreePath, err := s.VC.CreateIntegrationBranch(ctx, plan.ID, plan.BaseCommit, vc.PostCreateHooks{})
	if err != nil {
		return nil, err
	}
	plan.IntegrationBranch = branch
	plan.IntegrationWorktreePath = worktreePath

	if plan.Mode == models.ModeAutopilot || plan.Mode == models.ModeSupervisor {
		plan.Status = models.PlanRunning
	}

	if err := s.Store.SavePlan(ctx, plan); err != nil {
		return nil, err
	}

	if plan.Status == models.PlanRunning && s.Reconciler != nil {
		_ = s.Reconciler.Tick(ctx)
	}
	return plan, nil
}

// ApprovePlan implements spec.md §4.10's approvePlan contract: copilot
// flips pending→running; supervisor clears the named checkpoint.
func (s *Service) ApprovePlan(ctx context.Context, expected models.Checkpoint) (*models.Plan, error) {
	plan, err := s.Store.LoadPlan(ctx)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, merrors.New(merrors.NotFound, "no active plan")
	}

	switch plan.Mode {
	case models.ModeCopilot:
		if plan.Status != models.PlanPending {
			return nil, merrors.New(merrors.PreconditionFailed, "plan is not awaiting its first approval")
		}
		plan.Status = models.PlanRunning
	default:
		if err := checkpoint.Clear(plan, expected); err != nil {
			return nil, err
		}
		armPassThrough(plan, expected)
	}

	if err := s.Store.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	if s.Reconciler != nil {
		_ = s.Reconciler.Tick(ctx)
	}
	return plan, nil
}

// armPassThrough marks the job (or plan-level pre_pr gate) that was just
// cleared so the Reconciler's next tick does not immediately re-pause at
// the same checkpoint for the same cause (spec.md §9 open question 2).
func armPassThrough(plan *models.Plan, cleared models.Checkpoint) {
	if plan.CheckpointContext == nil {
		plan.CheckpointContext = map[string]interface{}{}
	}
	switch cleared {
	case models.CheckpointPreMerge:
		if job, ok := plan.CheckpointContext[reconciler.CtxPendingJob].(string); ok {
			plan.CheckpointContext[reconciler.CtxPassThroughJob] = job
		}
	case models.CheckpointPrePR:
		plan.CheckpointContext[reconciler.CtxPrePRCleared] = true
	}
}

// CancelPlan implements spec.md §4.10's cancelPlan contract.
func (s *Service) CancelPlan(ctx context.Context) error {
	plan, err := s.Store.LoadPlan(ctx)
	if err != nil {
		return err
	}
	if plan == nil {
		return merrors.New(merrors.NotFound, "no active plan")
	}

	for _, j := range plan.Jobs {
		if j.TerminalTarget != "" {
			_ = s.Worker.Kill(j.TerminalTarget)
		}
	}
	if err := s.VC.DeleteIntegrationBranch(ctx, plan.ID, plan.IntegrationWorktreePath); err != nil {
		return err
	}
	return s.Store.ClearPlan(ctx)
}

// ResumePlan implements spec.md §4.10's resumePlan contract: on process
// start, reconcile runtime Job records against actual worker liveness, and
// re-arm the Reconciler unless the plan is paused at a checkpoint.
func (s *Service) ResumePlan(ctx context.Context) error {
	jobs, err := s.Store.LoadJobs(ctx)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if j.Status != models.RunRunning {
			continue
		}
		alive, err := s.Worker.IsAlive(j.TerminalTarget)
		if err != nil {
			continue
		}
		if !alive {
			jobID := j.ID
			_ = s.Store.UpdateJob(ctx, jobID, func(job *models.Job) error {
				job.Status = models.RunFailed
				return nil
			})
		}
	}

	plan, err := s.Store.LoadPlan(ctx)
	if err != nil {
		return err
	}
	if plan == nil || !plan.IsActive() {
		return nil
	}
	if plan.Checkpoint != models.CheckpointNone {
		return nil
	}
	if s.Reconciler != nil {
		_ = s.Reconciler.Tick(ctx)
	}
	return nil
}

// Status returns the runtime Job record for name.
func (s *Service) Status(ctx context.Context, name string) (*models.Job, error) {
	jobs, err := s.Store.LoadJobs(ctx)
	if err != nil {
		return nil, err
	}
	for _, j := range jobs {
		if j.Name == name {
			return &j, nil
		}
	}
	return nil, merrors.New(merrors.NotFound, fmt.Sprintf("job %q not found", name))
}

// Jobs returns every runtime Job record.
func (s *Service) Jobs(ctx context.Context) ([]models.Job, error) {
	return s.Store.LoadJobs(ctx)
}

// Overview returns the active plan (if any) and its jobs' runtime records.
func (s *Service) Overview(ctx context.Context) (*models.Plan, []models.Job, error) {
	plan, err := s.Store.LoadPlan(ctx)
	if err != nil {
		return nil, nil, err
	}
	jobs, err := s.Store.LoadJobs(ctx)
	if err != nil {
		return nil, nil, err
	}
	return plan, jobs, nil
}

// Diff returns the working-tree diff for a job's worktree.
func (s *Service) Diff(ctx context.Context, name string) (string, error) {
	job, err := s.Status(ctx, name)
	if err != nil {
		return "", err
	}
	return s.VC.Diff(ctx, job.WorktreePath)
}

// Capture returns the current contents of a job's terminal pane.
func (s *Service) Capture(ctx context.Context, name string) (string, error) {
	job, err := s.Status(ctx, name)
	if err != nil {
		return "", err
	}
	if s.Terminal == nil {
		return "", merrors.New(merrors.NotFound, "no terminal provider configured")
	}
	return s.Terminal.CapturePane(job.TerminalTarget)
}

// Attach returns the command a caller can run to attach interactively to a
// job's terminal pane.
func (s *Service) Attach(ctx context.Context, name string) (string, error) {
	job, err := s.Status(ctx, name)
	if err != nil {
		return "", err
	}
	if s.Terminal == nil {
		return "", merrors.New(merrors.NotFound, "no terminal provider configured")
	}
	return s.Terminal.AttachCommand(job.TerminalTarget)
}

// JobReport is a progress self-report a job writes under
// <data-dir>/<project-id>/reports/<jobId>.json (spec.md §6). Readers
// tolerate unknown fields.
type JobReport struct {
	JobID     string    `json:"jobId"`
	JobName   string    `json:"jobName"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Progress  *int      `json:"progress,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Report reads the latest self-report a job has written.
func (s *Service) Report(ctx context.Context, name string) (*JobReport, error) {
	path := filepath.Join(s.DataDir, "reports", name+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, merrors.New(merrors.NotFound, fmt.Sprintf("no report for job %q", name))
	}
	if err != nil {
		return nil, merrors.Wrap(merrors.AdapterError, "read report", err)
	}
	var report JobReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, merrors.Wrap(merrors.Validation, "report is not valid JSON: "+path, err)
	}
	return &report, nil
}
