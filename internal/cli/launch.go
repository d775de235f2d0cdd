package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/missionctl/missionctl/internal/models"
	"github.com/missionctl/missionctl/internal/tools"
)

func newLaunchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "launch <name>",
		Short: "Launch a standalone agent into a new worktree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			prompt, _ := cmd.Flags().GetString("prompt")
			window, _ := cmd.Flags().GetBool("window")

			placement := models.PlacementSession
			if window {
				placement = models.PlacementWindow
			}

			job, err := a.Tools.Launch(cmd.Context(), tools.LaunchArgs{
				Name: args[0], Prompt: prompt, Placement: placement,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "launched %s (%s) at %s\n", job.Name, job.TerminalTarget, job.WorktreePath)
			return nil
		},
	}

	cmd.Flags().String("prompt", "", "Prompt given to the launched agent")
	cmd.Flags().Bool("window", false, "Place the agent in a window of the outer terminal session instead of its own session")
	return cmd
}
