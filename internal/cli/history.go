package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newHistoryCommand reads the execution-history index (internal/history), a
// derived, rebuildable record of past plan/job outcomes distinct from the
// authoritative State Store — an enrichment reporting verb alongside
// spec.md §6's named CLI surface, whose names are "illustrative, not
// wire-stable".
func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded plan runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			plans, err := a.History.ListPlans(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(plans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recorded plan runs")
				return nil
			}
			for _, p := range plans {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-24s %-10s %s\n", p.PlanID, p.PlanName, p.Status, p.CreatedAt.Format("2006-01-02 15:04"))

				jobs, err := a.History.ListJobs(cmd.Context(), p.PlanID)
				if err != nil {
					return err
				}
				for _, j := range jobs {
					fmt.Fprintf(cmd.OutOrStdout(), "  %-24s %s\n", j.JobName, j.Status)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of plan runs to show")
	return cmd
}
