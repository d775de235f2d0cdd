package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newJobsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jobs",
		Short: "List every runtime job record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			jobs, err := a.Tools.Jobs(cmd.Context())
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no jobs")
				return nil
			}
			for _, j := range jobs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-10s %s\n", j.Name, j.Status, j.Branch)
			}
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status <name>",
		Short: "Show one job's runtime record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			job, err := a.Tools.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "name:      %s\n", job.Name)
			fmt.Fprintf(cmd.OutOrStdout(), "status:    %s\n", job.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "branch:    %s\n", job.Branch)
			fmt.Fprintf(cmd.OutOrStdout(), "worktree:  %s\n", job.WorktreePath)
			fmt.Fprintf(cmd.OutOrStdout(), "target:    %s\n", job.TerminalTarget)
			return nil
		},
	}
}
