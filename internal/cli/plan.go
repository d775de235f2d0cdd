package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/missionctl/missionctl/internal/models"
)

func newPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan <plan-file>",
		Short: "Start a new plan from a YAML job-DAG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := loadPlanFile(args[0])
			if err != nil {
				return err
			}

			started, err := a.Tools.StartPlan(cmd.Context(), plan)
			if err != nil {
				return err
			}
			a.snapshotHistory(cmd.Context(), started)

			if started.Mode == models.ModeCopilot && started.Status == models.PlanPending {
				fmt.Fprintf(cmd.OutOrStdout(), "plan %s created, awaiting approval (missionctl plan-approve)\n", started.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plan %s running on integration branch %s\n", started.ID, started.IntegrationBranch)
			return nil
		},
	}
}

func newPlanStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan-status",
		Short: "Show the active plan's status and checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			plan, _, err := a.Tools.Overview(cmd.Context())
			if err != nil {
				return err
			}
			if plan == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no active plan")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "id:         %s\n", plan.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "name:       %s\n", plan.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "mode:       %s\n", plan.Mode)
			fmt.Fprintf(cmd.OutOrStdout(), "status:     %s\n", plan.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "checkpoint: %s\n", plan.Checkpoint)
			for _, j := range plan.Jobs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-24s %s\n", j.Name, j.Status)
			}
			return nil
		},
	}
}

func newPlanApproveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan-approve",
		Short: "Approve the active plan past its current pause",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			expectedStr, _ := cmd.Flags().GetString("expected")
			expected, err := checkpointFromString(expectedStr)
			if err != nil {
				return err
			}

			plan, err := a.Tools.ApprovePlan(cmd.Context(), expected)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "plan %s is now %s\n", plan.ID, plan.Status)
			return nil
		},
	}
	cmd.Flags().String("expected", "", "Checkpoint expected to be cleared (pre_merge, pre_pr, on_error); required for supervisor mode")
	return cmd
}

func newPlanCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan-cancel",
		Short: "Cancel the active plan: kill its workers and delete the integration branch",
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
			if err := a.Tools.CancelPlan(cmd.Context()); err != nil {
				return err
			}
			a.snapshotHistory(cmd.Context(), plan)
			fmt.Fprintln(cmd.OutOrStdout(), "plan cancelled")
			return nil
		},
	}
}
