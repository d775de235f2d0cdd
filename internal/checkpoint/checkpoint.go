// Package checkpoint implements the Checkpoint Controller (spec.md §4.7): a
// thin guard, consulted by the Reconciler, that pauses and resumes a plan
// at pre_merge, pre_pr, and on_error checkpoints according to its mode.
// New code — the teacher has no pause/resume state machine — written in
// the plain-struct-with-methods idiom it uses for small controllers.
package checkpoint

import (
	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
)

// Action is what the controller decides to do when a checkpoint is
// reached.
type Action string

const (
	ActionSkip  Action = "skip"
	ActionPause Action = "pause"
	ActionFail  Action = "fail"
)

// Decide returns the action a plan in the given mode takes when it reaches
// checkpoint cp (spec.md §4.7's mode table). Copilot's checkpoint is only
// ever CheckpointNone → running at approve time, handled separately by the
// Tool Surface's approvePlan; Decide covers pre_merge/pre_pr/on_error.
func Decide(mode models.Mode, cp models.Checkpoint) Action {
	switch mode {
	case models.ModeAutopilot:
		if cp == models.CheckpointOnError {
			return ActionFail
		}
		return ActionSkip
	case models.ModeCopilot:
		return ActionSkip
	case models.ModeSupervisor:
		return ActionPause
	default:
		return ActionFail
	}
}

// Enter applies a pause to plan for checkpoint cp: sets status=paused,
// checkpoint=cp, and leaves CheckpointContext as it is. Callers are responsible for
// persisting the plan and emitting the warning toast (spec.md §4.7).
func Enter(plan *models.Plan, cp models.Checkpoint) {
	plan.Status = models.PlanPaused
	plan.Checkpoint = cp
}

// Clear verifies the plan is paused at exactly `expected`, then resumes it.
// Returns CheckpointMismatch if the plan is not paused at expected — this
// is also how the idempotence law in spec.md §8 ("approvePlan(pre_merge)
// twice fails the second call") is enforced: the first Clear moves
// plan.Checkpoint to CheckpointNone, so the second finds a mismatch.
func Clear(plan *models.Plan, expected models.Checkpoint) error {
	if plan.Checkpoint != expected {
		return merrors.New(merrors.CheckpointMismatch,
			"expected checkpoint "+string(expected)+", plan is at "+string(plan.Checkpoint))
	}
	plan.Checkpoint = models.CheckpointNone
	plan.Status = models.PlanRunning
	return nil
}
