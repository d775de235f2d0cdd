package models

import "time"

// JobStatus is the lifecycle state of a JobSpec within a Plan.
//
// Monotonic progression (spec.md §8 invariant 5):
//
//	queued → waiting_deps → running → completed → ready_to_merge → merging → merged
//
// failed, needs_rebase, and stopped are absorbing or operator-cleared.
type JobStatus string

const (
	JobQueued       JobStatus = "queued"
	JobWaitingDeps  JobStatus = "waiting_deps"
	JobRunning      JobStatus = "running"
	JobCompleted    JobStatus = "completed"
	JobReadyToMerge JobStatus = "ready_to_merge"
	JobMerging      JobStatus = "merging"
	JobMerged       JobStatus = "merged"
	JobNeedsRebase  JobStatus = "needs_rebase"
	JobFailed       JobStatus = "failed"
	JobStopped      JobStatus = "stopped"
)

// statusRank gives the monotonic ordering of the non-absorbing statuses, used
// to detect illegal backward transitions.
var statusRank = map[JobStatus]int{
	JobQueued:       0,
	JobWaitingDeps:  1,
	JobRunning:      2,
	JobCompleted:    3,
	JobReadyToMerge: 4,
	JobMerging:      5,
	JobMerged:       6,
}

// absorbing statuses are terminal except for an explicit operator action
// (cleanup, retry) and are exempt from the monotonic-progression check.
var absorbingStatus = map[JobStatus]bool{
	JobFailed:      true,
	JobNeedsRebase: true,
	JobStopped:     true,
}

// CanTransition reports whether moving from `from` to `to` respects the
// monotonic-progression invariant (spec.md §8 invariant 5). Transitions into
// or out of an absorbing status are always permitted; the Reconciler and
// Tool Surface are responsible for deciding when that's appropriate.
func CanTransition(from, to JobStatus) bool {
	if absorbingStatus[from] || absorbingStatus[to] {
		return true
	}
	fromRank, fromOK := statusRank[from]
	toRank, toOK := statusRank[to]
	if !fromOK || !toOK {
		return false
	}
	return toRank >= fromRank
}

// JobSpec is the plan-level record of one job: its prompt, dependencies, and
// current place in the state machine.
type JobSpec struct {
	Name               string     `json:"name"`
	Prompt             string     `json:"prompt"`
	DependsOn          []string   `json:"dependsOn,omitempty"`
	MergeOrder         int        `json:"mergeOrder"`
	MergeOrderAssigned bool       `json:"mergeOrderAssigned"`
	Status             JobStatus  `json:"status"`
	Branch             string     `json:"branch,omitempty"`
	WorktreePath       string     `json:"worktreePath,omitempty"`
	TerminalTarget     string     `json:"terminalTarget,omitempty"`
	MergedAt           *time.Time `json:"mergedAt,omitempty"`
	FailureReason      string     `json:"failureReason,omitempty"`
}

// JobPlacement selects whether a worker gets its own terminal session or a
// window inside an outer session.
type JobPlacement string

const (
	PlacementSession JobPlacement = "session"
	PlacementWindow  JobPlacement = "window"
)

// JobRunStatus is the lifecycle state of a launched runtime Job record.
type JobRunStatus string

const (
	RunRunning   JobRunStatus = "running"
	RunCompleted JobRunStatus = "completed"
	RunFailed    JobRunStatus = "failed"
	RunStopped   JobRunStatus = "stopped"
)

// Job is the runtime record for one launched JobSpec: the worktree, branch,
// and terminal target actually in use, owned by the State Store and
// referenced by a JobSpec for the duration of the run.
type Job struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	PlanID        string       `json:"planId,omitempty"`
	WorktreePath  string       `json:"worktreePath"`
	Branch        string       `json:"branch"`
	TerminalTarget string      `json:"terminalTarget"`
	Placement     JobPlacement `json:"placement"`
	Status        JobRunStatus `json:"status"`
	Prompt        string       `json:"prompt"`
	Mode          Mode         `json:"mode,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
	CompletedAt   *time.Time   `json:"completedAt,omitempty"`
	ExitCode      *int         `json:"exitCode,omitempty"`
}

// PendingNotification is a transient, structured advisory produced by the
// Notifier for display by some outer surface. It is never persisted.
type PendingNotification struct {
	Title    string
	Message  string
	Variant  string
	Duration time.Duration
}
