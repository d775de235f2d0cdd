package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/missionctl/missionctl/internal/merrors"
)

func newKillCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kill <name>",
		Short: "Stop a running job, preserving its worktree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			force, _ := cmd.Flags().GetBool("force")
			if err := a.Tools.Kill(cmd.Context(), args[0], force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "killed %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "Mark the job stopped even if the worker could not be killed cleanly")
	return cmd
}

func newCleanupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup [name]",
		Short: "Remove a job's worktree and record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			all, _ := cmd.Flags().GetBool("all")
			deleteBranch, _ := cmd.Flags().GetBool("delete-branch")

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" && !all {
				return merrors.New(merrors.Validation, "cleanup requires a job name or --all")
			}

			if err := a.Tools.Cleanup(cmd.Context(), name, all, deleteBranch); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleanup complete")
			return nil
		},
	}
	cmd.Flags().Bool("all", false, "Clean up every non-running job")
	cmd.Flags().Bool("delete-branch", false, "Also delete the job's branch")
	return cmd
}
