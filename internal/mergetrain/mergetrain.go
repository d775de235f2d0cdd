// Package mergetrain implements the Merge Train (spec.md §4.6): a strictly
// sequential FIFO serializer that rebases, fast-forward merges, and
// optionally tests one job's branch at a time against a plan's integration
// branch. The teacher has no direct equivalent (its git_checkpointer.go
// covers single-branch checkpoint/restore only); this is new code built
// directly on internal/vc, reusing its CommandRunner-injection idiom for
// testability.
package mergetrain

import (
	"context"
	"sync"
	"time"

	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
	"github.com/missionctl/missionctl/internal/vc"
)

// Train is the Merge Train for one plan's integration branch.
type Train struct {
	VC            *vc.Adapter
	ShellRunner   ShellRunner
	SetupCommands []string
	TestCommand   string

	mu     sync.Mutex
	queue  []models.JobSpec
	queued map[string]bool
}

// New creates an empty Train.
func New(adapter *vc.Adapter, shell ShellRunner, setupCommands []string, testCommand string) *Train {
	return &Train{
		VC:            adapter,
		ShellRunner:   shell,
		SetupCommands: setupCommands,
		TestCommand:   testCommand,
		queued:        make(map[string]bool),
	}
}

// Enqueue adds job to the tail of the queue. A job already queued is a
// no-op (spec.md §8 boundary behavior).
func (t *Train) Enqueue(job models.JobSpec) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.queued[job.Name] {
		return
	}
	t.queued[job.Name] = true
	t.queue = append(t.queue, job)
}

// Queue returns a snapshot of the jobs currently queued, in FIFO order.
func (t *Train) Queue() []models.JobSpec {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.JobSpec, len(t.queue))
	copy(out, t.queue)
	return out
}

func (t *Train) pop() (models.JobSpec, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return models.JobSpec{}, false
	}
	job := t.queue[0]
	t.queue = t.queue[1:]
	delete(t.queued, job.Name)
	return job, true
}

// ProcessNext dequeues and processes the head job against integrationBranch
// checked out at integrationWorktreePath, per spec.md §4.6's five-step
// sequence. A nil job with ok=false means the queue was empty.
func (t *Train) ProcessNext(ctx context.Context, integrationBranch, integrationWorktreePath string) (job *models.JobSpec, outcome models.MergeOutcome, ok bool, err error) {
	popped, has := t.pop()
	if !has {
		return nil, models.MergeOutcome{}, false, nil
	}
	job = &popped

	clean, err := t.VC.IsClean(ctx, integrationWorktreePath)
	if err != nil {
		return job, models.MergeOutcome{}, true, err
	}
	if !clean {
		return job, models.MergeOutcome{}, true, merrors.New(merrors.PreconditionFailed, "integration worktree is not clean")
	}

	conflicted, files, err := t.VC.Rebase(ctx, job.WorktreePath, integrationBranch)
	if err != nil {
		return job, models.MergeOutcome{}, true, err
	}
	if conflicted {
		return job, models.ConflictOutcome(files), true, nil
	}

	priorTip, err := t.VC.HeadRev(ctx, integrationWorktreePath)
	if err != nil {
		return job, models.MergeOutcome{}, true, err
	}

	conflicted, files, err = t.VC.Merge(ctx, integrationWorktreePath, job.Branch)
	if err != nil {
		return job, models.MergeOutcome{}, true, err
	}
	if conflicted {
		return job, models.ConflictOutcome(files), true, nil
	}

	if t.TestCommand == "" {
		return job, models.OK(time.Now().UTC(), ""), true, nil
	}

	report, passed, err := t.runTests(ctx, integrationWorktreePath)
	if err != nil {
		return job, models.MergeOutcome{}, true, err
	}
	if !passed {
		if resetErr := t.VC.ResetHard(ctx, integrationWorktreePath, priorTip); resetErr != nil {
			return job, models.MergeOutcome{}, true, resetErr
		}
		return job, models.TestFailureOutcome(t.TestCommand, report), true, nil
	}

	return job, models.OK(time.Now().UTC(), report), true, nil
}

func (t *Train) runTests(ctx context.Context, dir string) (report string, passed bool, err error) {
	var combined string
	for _, setup := range t.SetupCommands {
		out, code, runErr := t.ShellRunner.Run(ctx, dir, setup)
		combined += out
		if runErr != nil {
			return combined, false, merrors.Wrap(merrors.AdapterError, "merge-train setup command failed", runErr)
		}
		if code != 0 {
			return combined, false, nil
		}
	}

	out, code, runErr := t.ShellRunner.Run(ctx, dir, t.TestCommand)
	combined += out
	if runErr != nil {
		return combined, false, merrors.Wrap(merrors.AdapterError, "merge-train test command failed", runErr)
	}
	return combined, code == 0, nil
}
