// Package reconciler implements the Reconciler (spec.md §4.8): the sole
// owner of plan/job state transitions. Grounded on the teacher's
// internal/executor/orchestrator.go ExecutePlan driving loop (signal
// handling, merge-then-run, result aggregation), generalized from "run
// every wave once to completion" into "run one non-blocking tick, return,
// and be re-triggered".
package reconciler

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/missionctl/missionctl/internal/checkpoint"
	"github.com/missionctl/missionctl/internal/config"
	"github.com/missionctl/missionctl/internal/mergetrain"
	"github.com/missionctl/missionctl/internal/models"
	"github.com/missionctl/missionctl/internal/notify"
	"github.com/missionctl/missionctl/internal/scheduler"
	"github.com/missionctl/missionctl/internal/store"
	"github.com/missionctl/missionctl/internal/vc"
	"github.com/missionctl/missionctl/internal/worker"
)

// PRPublisher is the out-of-scope "authenticate against a code host /
// transport a PR payload" collaborator, referenced only by contract
// (spec.md §1 Non-goals).
type PRPublisher interface {
	CreatePR(ctx context.Context, plan *models.Plan) (url string, err error)
}

// Checkpoint-context keys used to implement the one-shot re-entry guard
// described in spec.md §9 open question 2: a cleared checkpoint cannot
// re-trigger from the same cause within the same tick. Storing the marker
// in Plan.CheckpointContext (rather than Reconciler-local state) means the
// guard survives a process restart between clear and the next tick.
const (
	CtxPendingJob     = "pendingJob"
	CtxPassThroughJob = "passThroughJob"
	CtxPrePRCleared   = "prePRCleared"
)

// Reconciler owns every Plan/Job state transition for one project.
type Reconciler struct {
	Store  *store.Store
	VC     *vc.Adapter
	Worker *worker.Supervisor
	Train  *mergetrain.Train
	Notify *notify.Notifier
	Config *config.Config
	PR     PRPublisher

	reconciling atomic.Bool
}

// Tick runs one non-blocking reconciliation pass. Concurrent calls
// coalesce: if a tick is already running, a new call returns immediately
// (spec.md §4.8: "at most one reconciliation tick executes at a time ...
// an is-reconciling flag to allow cheap coalescing").
func (r *Reconciler) Tick(ctx context.Context) error {
	if !r.reconciling.CompareAndSwap(false, true) {
		return nil
	}
	defer r.reconciling.Store(false)

	plan, err := r.Store.LoadPlan(ctx)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	r.applyWorkerEvents(ctx, plan)

	if plan.Checkpoint != models.CheckpointNone {
		return r.Store.SavePlan(ctx, plan)
	}

	r.transitionCompletedJobs(plan)

	paused := r.enqueueTrainCandidates(plan)
	if !paused {
		if err := r.processOneMerge(ctx, plan); err != nil {
			return err
		}
	}

	if plan.Checkpoint == models.CheckpointNone {
		if err := r.scheduleLaunches(ctx, plan); err != nil {
			return err
		}
	}

	if plan.Checkpoint == models.CheckpointNone {
		r.checkCompletion(ctx, plan)
	}

	r.checkFailure(plan)

	return r.Store.SavePlan(ctx, plan)
}

// applyWorkerEvents drains every event currently buffered on the Worker
// Supervisor's channel and applies it to the in-memory plan (spec.md §5
// ordering guarantee (c): arrival order within a tick). Events for unknown
// jobs are dropped.
func (r *Reconciler) applyWorkerEvents(ctx context.Context, plan *models.Plan) {
	for {
		select {
		case ev := <-r.Worker.Events():
			r.applyEvent(ctx, plan, ev)
		default:
			return
		}
	}
}

func (r *Reconciler) applyEvent(ctx context.Context, plan *models.Plan, ev worker.Event) {
	jobs, err := r.Store.LoadJobs(ctx)
	if err != nil {
		return
	}
	var runtimeJob *models.Job
	for i := range jobs {
		if jobs[i].ID == ev.JobID {
			runtimeJob = &jobs[i]
			break
		}
	}
	if runtimeJob == nil {
		return
	}

	spec := plan.JobByName(runtimeJob.Name)
	if spec == nil {
		return
	}

	now := time.Now().UTC()
	switch ev.Kind {
	case worker.EventCompleted:
		if spec.Status == models.JobRunning {
			spec.Status = models.JobCompleted
		}
		_ = r.Store.UpdateJob(ctx, runtimeJob.ID, func(j *models.Job) error {
			j.Status = models.RunCompleted
			j.CompletedAt = &now
			j.ExitCode = ev.ExitCode
			return nil
		})
	case worker.EventFailed:
		spec.Status = models.JobFailed
		code := -1
		if ev.ExitCode != nil {
			code = *ev.ExitCode
		}
		spec.FailureReason = fmt.Sprintf("worker exited with code %d", code)
		_ = r.Store.UpdateJob(ctx, runtimeJob.ID, func(j *models.Job) error {
			j.Status = models.RunFailed
			j.CompletedAt = &now
			j.ExitCode = ev.ExitCode
			return nil
		})
	}
}

// transitionCompletedJobs implements spec.md §4.8 step 3.
func (r *Reconciler) transitionCompletedJobs(plan *models.Plan) {
	for i := range plan.Jobs {
		j := &plan.Jobs[i]
		if j.Status != models.JobCompleted {
			continue
		}
		if !j.MergeOrderAssigned {
			j.MergeOrder = plan.HighestMergeOrder() + 1
			j.MergeOrderAssigned = true
		}
		j.Status = models.JobReadyToMerge
	}
}

// enqueueTrainCandidates implements spec.md §4.8 step 4, including the
// supervisor pre_merge checkpoint gate and its one-shot pass-through guard
// (spec.md §9 open question 2). Returns true if the tick paused here.
func (r *Reconciler) enqueueTrainCandidates(plan *models.Plan) bool {
	passThrough, _ := stringFromContext(plan, CtxPassThroughJob)

	for i := range plan.Jobs {
		j := &plan.Jobs[i]
		if j.Status != models.JobReadyToMerge {
			continue
		}
		if !lowerSiblingsMerged(plan, j) {
			continue
		}

		if j.Name != passThrough && checkpoint.Decide(plan.Mode, models.CheckpointPreMerge) == checkpoint.ActionPause {
			checkpoint.Enter(plan, models.CheckpointPreMerge)
			setContext(plan, CtxPendingJob, j.Name)
			r.Notify.Toast("Plan paused", "job "+j.Name+" is ready to merge", notify.VariantWarning, 0)
			return true
		}

		if j.Name == passThrough {
			clearContext(plan, CtxPassThroughJob)
		}

		j.Status = models.JobMerging
		r.Train.Enqueue(*j)
	}
	return false
}

func lowerSiblingsMerged(plan *models.Plan, j *models.JobSpec) bool {
	if !j.MergeOrderAssigned {
		return false
	}
	for _, other := range plan.Jobs {
		if other.Name == j.Name {
			continue
		}
		if other.MergeOrderAssigned && other.MergeOrder < j.MergeOrder && other.Status != models.JobMerged {
			return false
		}
	}
	return true
}

// processOneMerge implements spec.md §4.8 step 5.
func (r *Reconciler) processOneMerge(ctx context.Context, plan *models.Plan) error {
	job, outcome, ok, err := r.Train.ProcessNext(ctx, plan.IntegrationBranch, plan.IntegrationWorktreePath)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	spec := plan.JobByName(job.Name)
	if spec == nil {
		return nil
	}

	switch outcome.Kind {
	case models.OutcomeOK:
		spec.Status = models.JobMerged
		spec.MergedAt = &outcome.MergedAt
		r.Notify.Toast("Merged", job.Name+" merged into "+plan.IntegrationBranch, notify.VariantSuccess, 0)
	case models.OutcomeConflict:
		spec.Status = models.JobNeedsRebase
		spec.FailureReason = "merge conflict in " + joinFiles(outcome.ConflictFiles)
		r.failOrPause(plan)
	case models.OutcomeTestFailure:
		spec.Status = models.JobNeedsRebase
		spec.FailureReason = "test command failed: " + outcome.TestCommand
		r.failOrPause(plan)
	}
	return nil
}

func (r *Reconciler) failOrPause(plan *models.Plan) {
	switch plan.Mode {
	case models.ModeAutopilot:
		plan.Status = models.PlanFailed
		r.Notify.Toast("Plan failed", "merge train reported a failure", notify.VariantError, 0)
	default:
		checkpoint.Enter(plan, models.CheckpointOnError)
		r.Notify.Toast("Plan paused", "merge train reported a failure", notify.VariantWarning, 0)
	}
}

func joinFiles(files []string) string {
	out := ""
	for i, f := range files {
		if i > 0 {
			out += ", "
		}
		out += f
	}
	return out
}

// scheduleLaunches implements spec.md §4.8 step 6.
func (r *Reconciler) scheduleLaunches(ctx context.Context, plan *models.Plan) error {
	running := 0
	for _, j := range plan.Jobs {
		if j.Status == models.JobRunning {
			running++
		}
	}

	maxParallel := config.DefaultMaxParallel
	if r.Config != nil && r.Config.MaxParallel > 0 {
		maxParallel = r.Config.MaxParallel
	}

	ready := scheduler.ReadyJobs(plan, running, maxParallel)
	for _, rdy := range ready {
		spec := plan.JobByName(rdy.Name)
		if spec == nil {
			continue
		}

		branch := vc.JobBranch(spec.Name)
		hooks := vc.PostCreateHooks{}
		if r.Config != nil {
			hooks.SymlinkDirs = r.Config.SymlinkDirs
			hooks.CopyFiles = r.Config.CopyFiles
		}

		worktreePath, err := r.VC.CreateWorktree(ctx, branch, hooks)
		if err != nil {
			spec.Status = models.JobFailed
			spec.FailureReason = err.Error()
			continue
		}

		target, err := r.Worker.Launch(ctx, worker.LaunchSpec{
			JobID:        spec.Name,
			Name:         spec.Name,
			WorktreePath: worktreePath,
			Placement:    models.PlacementSession,
			Command:      "missionctl-agent",
			Args:         []string{"--prompt", spec.Prompt},
		})
		if err != nil {
			spec.Status = models.JobFailed
			spec.FailureReason = err.Error()
			continue
		}

		spec.Status = models.JobRunning
		spec.Branch = branch
		spec.WorktreePath = worktreePath
		spec.TerminalTarget = target

		_ = r.Store.AddJob(ctx, models.Job{
			ID: spec.Name, Name: spec.Name, PlanID: plan.ID,
			WorktreePath: worktreePath, Branch: branch, TerminalTarget: target,
			Placement: models.PlacementSession, Status: models.RunRunning,
			Prompt: spec.Prompt, Mode: plan.Mode, CreatedAt: time.Now().UTC(),
		})
	}
	return nil
}

// checkCompletion implements spec.md §4.8 step 7.
func (r *Reconciler) checkCompletion(ctx context.Context, plan *models.Plan) {
	if !plan.AllMerged() {
		return
	}

	prePRCleared, _ := boolFromContext(plan, CtxPrePRCleared)
	if !prePRCleared && checkpoint.Decide(plan.Mode, models.CheckpointPrePR) == checkpoint.ActionPause {
		checkpoint.Enter(plan, models.CheckpointPrePR)
		r.Notify.Toast("Plan paused", "all jobs merged, awaiting PR approval", notify.VariantWarning, 0)
		return
	}
	clearContext(plan, CtxPrePRCleared)

	if r.PR != nil {
		url, err := r.PR.CreatePR(ctx, plan)
		if err != nil {
			plan.Status = models.PlanFailed
			return
		}
		plan.PRUrl = url
	}
	plan.Status = models.PlanCompleted
	now := time.Now().UTC()
	plan.CompletedAt = &now
	r.Notify.Toast("Plan completed", plan.Name+" published", notify.VariantSuccess, 0)
}

// checkFailure implements spec.md §4.8 step 8: a job failure outside a
// retryable checkpoint fails the plan.
func (r *Reconciler) checkFailure(plan *models.Plan) {
	if plan.Status != models.PlanRunning {
		return
	}
	for _, j := range plan.Jobs {
		if j.Status == models.JobFailed {
			plan.Status = models.PlanFailed
			return
		}
	}
}

func stringFromContext(plan *models.Plan, key string) (string, bool) {
	if plan.CheckpointContext == nil {
		return "", false
	}
	v, ok := plan.CheckpointContext[key].(string)
	return v, ok
}

func boolFromContext(plan *models.Plan, key string) (bool, bool) {
	if plan.CheckpointContext == nil {
		return false, false
	}
	v, ok := plan.CheckpointContext[key].(bool)
	return v, ok
}

func setContext(plan *models.Plan, key string, value interface{}) {
	if plan.CheckpointContext == nil {
		plan.CheckpointContext = map[string]interface{}{}
	}
	plan.CheckpointContext[key] = value
}

func clearContext(plan *models.Plan, key string) {
	if plan.CheckpointContext == nil {
		return
	}
	delete(plan.CheckpointContext, key)
}
