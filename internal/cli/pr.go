package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/prbody"
)

func newPRCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pr",
		Short: "Print the pull request description for the active plan",
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

			preview, _ := cmd.Flags().GetBool("preview")
			if preview {
				html, err := prbody.Preview(plan)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), html)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), prbody.Render(plan))
			return nil
		},
	}
	cmd.Flags().Bool("preview", false, "Render the PR body as HTML instead of Markdown")
	return cmd
}
