package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report <name>",
		Short: "Show a job's latest self-reported progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Tools.Report(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status:  %s\n", report.Status)
			fmt.Fprintf(cmd.OutOrStdout(), "message: %s\n", report.Message)
			if report.Progress != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "progress: %d%%\n", *report.Progress)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "at:      %s\n", report.Timestamp.Format("2006-01-02 15:04:05 MST"))
			return nil
		},
	}
}
