package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/missionctl/missionctl/internal/merrors"
)

// newMergeCommand runs one Reconciler tick on demand — useful when an
// operator just cleared a checkpoint or wants to force a merge-train pass.
// No periodic timer runs ticks; besides this verb, only tool-surface calls
// such as plan start and approve invoke Tick.
func newMergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Run one Reconciler tick now: enqueue ready jobs and process the next merge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Reconciler.Tick(cmd.Context()); err != nil {
				return err
			}

			plan, _, err := a.Tools.Overview(cmd.Context())
			if err != nil {
				return err
			}
			if plan == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no active plan")
				return nil
			}
			a.snapshotHistory(cmd.Context(), plan)
			fmt.Fprintf(cmd.OutOrStdout(), "plan %s: %s (checkpoint %s)\n", plan.ID, plan.Status, plan.Checkpoint)
			return nil
		},
	}
}

// newSyncCommand rebases the active plan's integration worktree onto the
// latest default branch, outside of the merge train's own per-job rebase
// (spec.md §4.3's refresh operation, exposed as a standalone CLI escape
// hatch for an integration branch that has drifted far behind main).
func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Refresh the active plan's integration branch from the repository default branch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := a.Store.LoadPlan(cmd.Context())
			if err != nil {
				return err
			}
			if plan == nil {
				return merrors.New(merrors.NotFound, "no active plan")
			}

			success, conflicts, err := a.VC.RefreshIntegrationFromMain(cmd.Context(), plan.IntegrationWorktreePath)
			if err != nil {
				return err
			}
			if !success {
				fmt.Fprintf(cmd.OutOrStdout(), "sync failed: conflicts in %v\n", conflicts)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "integration branch synced")
			return nil
		},
	}
}
