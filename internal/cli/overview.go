package cli

import (
	"github.com/spf13/cobra"
)

func newOverviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show the active plan and every job's status in a boxed table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			plan, jobs, err := a.Tools.Overview(cmd.Context())
			if err != nil {
				return err
			}
			a.Log.Overview(plan, jobs)
			return nil
		},
	}
}
