// Package models defines the persisted entities of Mission Control: Plan,
// JobSpec, Job, and the small value types that compose them. These are the
// structures the State Store round-trips to disk and the Reconciler mutates
// in place.
package models

import "time"

// Mode controls when the Checkpoint Controller pauses plan execution.
type Mode string

const (
	ModeAutopilot  Mode = "autopilot"
	ModeCopilot    Mode = "copilot"
	ModeSupervisor Mode = "supervisor"
)

// PlanStatus is the lifecycle state of a Plan.
type PlanStatus string

const (
	PlanPending   PlanStatus = "pending"
	PlanRunning   PlanStatus = "running"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
	PlanFailed    PlanStatus = "failed"
)

// Checkpoint names a pause point in plan execution.
type Checkpoint string

const (
	CheckpointNone     Checkpoint = "none"
	CheckpointPreMerge Checkpoint = "pre_merge"
	CheckpointPrePR    Checkpoint = "pre_pr"
	CheckpointOnError  Checkpoint = "on_error"
)

// SchemaVersion is the current persisted-state schema version (spec.md §6).
const SchemaVersion = 2

// Plan is the declarative unit of orchestration: many jobs integrated, in
// order, onto a shared integration branch and eventually published as a PR.
//
// Invariants (spec.md §3):
//   - exactly one Plan per project may be "active" (Status ∈ {pending, running, paused})
//   - BaseCommit is immutable once set
//   - Checkpoint != CheckpointNone iff Status == PlanPaused
type Plan struct {
	ID                      string                 `json:"id"`
	Name                    string                 `json:"name"`
	Mode                    Mode                   `json:"mode"`
	Status                  PlanStatus             `json:"status"`
	Checkpoint              Checkpoint             `json:"checkpoint"`
	CheckpointContext       map[string]interface{} `json:"checkpointContext,omitempty"`
	Jobs                    []JobSpec              `json:"jobs"`
	IntegrationBranch       string                 `json:"integrationBranch"`
	IntegrationWorktreePath string                 `json:"integrationWorktreePath"`
	BaseCommit              string                 `json:"baseCommit"`
	PRUrl                   string                 `json:"prUrl,omitempty"`
	CreatedAt               time.Time              `json:"createdAt"`
	CompletedAt             *time.Time             `json:"completedAt,omitempty"`
}

// IsActive reports whether the plan still requires reconciliation.
func (p *Plan) IsActive() bool {
	if p == nil {
		return false
	}
	switch p.Status {
	case PlanPending, PlanRunning, PlanPaused:
		return true
	default:
		return false
	}
}

// JobByName returns a pointer into p.Jobs for the named job, or nil.
func (p *Plan) JobByName(name string) *JobSpec {
	for i := range p.Jobs {
		if p.Jobs[i].Name == name {
			return &p.Jobs[i]
		}
	}
	return nil
}

// AllMerged reports whether every job in the plan has reached JobMerged.
func (p *Plan) AllMerged() bool {
	if len(p.Jobs) == 0 {
		return false
	}
	for _, j := range p.Jobs {
		if j.Status != JobMerged {
			return false
		}
	}
	return true
}

// HighestMergeOrder returns the highest MergeOrder assigned so far, or -1
// if no job has one yet.
func (p *Plan) HighestMergeOrder() int {
	highest := -1
	for _, j := range p.Jobs {
		if j.MergeOrderAssigned && j.MergeOrder > highest {
			highest = j.MergeOrder
		}
	}
	return highest
}
