package cli

import (
	"github.com/spf13/cobra"

	"github.com/missionctl/missionctl/internal/merrors"
)

// Version is injected at build time via -ldflags, matching the teacher's
// cmd.Version convention.
var Version = "dev"

// NewRootCommand builds the missionctl root command and its full verb tree
// (spec.md §6's CLI surface).
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missionctl",
		Short: "Orchestrate many concurrent AI coding agents against one repository",
		Long: `missionctl launches AI coding agents into isolated worktrees, runs a
declarative multi-job plan across them as a DAG, merges completed jobs onto a
shared integration branch one at a time through a sequential merge train, and
publishes the result as a single pull request.`,
		Version:      Version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .missionctl/config.yaml)")
	cmd.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn, error")

	cmd.AddCommand(
		newLaunchCommand(),
		newKillCommand(),
		newCleanupCommand(),
		newJobsCommand(),
		newStatusCommand(),
		newAttachCommand(),
		newCaptureCommand(),
		newDiffCommand(),
		newReportCommand(),
		newOverviewCommand(),
		newPlanCommand(),
		newPlanStatusCommand(),
		newPlanApproveCommand(),
		newPlanCancelCommand(),
		newMergeCommand(),
		newSyncCommand(),
		newPRCommand(),
		newHistoryCommand(),
	)

	return cmd
}

// ExitCode maps an error returned from Execute() to spec.md §6's exit code
// scheme: 0 success (never reached here; only called on non-nil err), 2
// validation error, 1 everything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if merrors.Is(err, merrors.Validation) || merrors.Is(err, merrors.CheckpointMismatch) {
		return 2
	}
	return 1
}
