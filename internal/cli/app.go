// Package cli wires the Tool Surface, Reconciler, and supporting packages
// into the missionctl command-line binary. Grounded on the teacher's
// internal/cmd convention: NewRootCommand() assembles subcommands, and each
// verb's RunE loads its own dependencies rather than sharing a
// long-lived global (internal/cmd/run.go loads config.LoadConfig per
// invocation; here newApp plays the same role for the whole collaborator
// graph, since missionctl has no single long-running process to amortize
// construction across).
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/missionctl/missionctl/internal/config"
	"github.com/missionctl/missionctl/internal/history"
	"github.com/missionctl/missionctl/internal/lock"
	"github.com/missionctl/missionctl/internal/logger"
	"github.com/missionctl/missionctl/internal/mergetrain"
	"github.com/missionctl/missionctl/internal/merrors"
	"github.com/missionctl/missionctl/internal/models"
	"github.com/missionctl/missionctl/internal/notify"
	"github.com/missionctl/missionctl/internal/reconciler"
	"github.com/missionctl/missionctl/internal/store"
	"github.com/missionctl/missionctl/internal/tools"
	"github.com/missionctl/missionctl/internal/vc"
	"github.com/missionctl/missionctl/internal/worker"
)

// outerSessionEnvVar is the "terminal-outer-session indicator" environment
// input named in spec.md §6, required before the Worker Supervisor will
// accept Placement = window.
const outerSessionEnvVar = "MISSIONCTL_OUTER_SESSION"

// app bundles every collaborator a Tool Surface call needs, built fresh for
// each CLI invocation from flags, environment, and the on-disk config file.
type app struct {
	Config     *config.Config
	Store      *store.Store
	VC         *vc.Adapter
	Worker     *worker.Supervisor
	Train      *mergetrain.Train
	Reconciler *reconciler.Reconciler
	Notify     *notify.Notifier
	History    *history.Store
	Tools      *tools.Service
	Log        *logger.ConsoleLogger
}

// newApp resolves the repository root and project identity, loads config,
// and constructs the full collaborator graph described by SPEC_FULL.md's
// component design: VC Adapter, Worker Supervisor, Merge Train, Reconciler,
// Notifier, State Store, execution-history index, and the Tool Surface
// Service itself.
func newApp(cmd *cobra.Command) (*app, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	configPath, _ := cmd.Flags().GetString("config")

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	if configPath == "" {
		configPath = filepath.Join(cwd, ".missionctl", "config.yaml")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	dataRoot, err := cfg.DataRoot()
	if err != nil {
		return nil, err
	}

	mu := lock.New()
	vcAdapter := vc.New(mu, cwd)

	gitCommonDir := func(ctx context.Context, cwd string, args ...string) (string, error) {
		res, err := vcAdapter.RunVC(ctx, cwd, args...)
		return res.Stdout, err
	}
	projectID, err := config.ProjectID(ctx, gitCommonDir, cwd)
	if err != nil {
		return nil, fmt.Errorf("resolve project identity: %w", err)
	}

	st := store.New(mu, dataRoot, projectID)

	hist, err := history.Open(historyDBPath(dataRoot, projectID))
	if err != nil {
		return nil, err
	}

	outerSession := os.Getenv(outerSessionEnvVar) != ""
	sup := worker.New(outerSession)

	train := mergetrain.New(vcAdapter, mergetrain.DefaultShellRunner{}, cfg.SetupCommands, cfg.TestCommand)
	notifier := notify.New(nil)

	rec := &reconciler.Reconciler{
		Store: st, VC: vcAdapter, Worker: sup, Train: train, Notify: notifier, Config: cfg,
	}

	svc := &tools.Service{
		Store: st, VC: vcAdapter, Worker: sup, Reconciler: rec, Notify: notifier,
		Config: cfg, DataDir: filepath.Join(dataRoot, projectID),
	}

	log := logger.NewConsoleLogger(cmd.OutOrStdout(), logLevel)

	return &app{
		Config: cfg, Store: st, VC: vcAdapter, Worker: sup, Train: train,
		Reconciler: rec, Notify: notifier, History: hist, Tools: svc, Log: log,
	}, nil
}

func (a *app) Close() {
	if a.History != nil {
		_ = a.History.Close()
	}
}

// snapshotHistory records the current state of plan and its jobs into the
// execution-history index. Best-effort: history is advisory (it can always
// be rebuilt from plan.json/jobs.json), so a recording failure is logged,
// not propagated as a command failure.
func (a *app) snapshotHistory(ctx context.Context, plan *models.Plan) {
	if a.History == nil || plan == nil {
		return
	}
	if err := a.History.RecordPlan(ctx, plan); err != nil {
		a.Log.Warn("record plan history: %v", err)
		return
	}
	for _, j := range plan.Jobs {
		if err := a.History.RecordJob(ctx, plan.ID, j); err != nil {
			a.Log.Warn("record job history for %s: %v", j.Name, err)
		}
	}
}

func historyDBPath(dataRoot, projectID string) string {
	return filepath.Join(dataRoot, projectID, "history.db")
}

// checkpointFromString validates a user-supplied --expected checkpoint
// flag, defaulting to CheckpointNone (approvePlan's "no specific
// checkpoint expected" case).
func checkpointFromString(s string) (models.Checkpoint, error) {
	switch models.Checkpoint(s) {
	case "", models.CheckpointNone:
		return models.CheckpointNone, nil
	case models.CheckpointPreMerge, models.CheckpointPrePR, models.CheckpointOnError:
		return models.Checkpoint(s), nil
	default:
		return "", merrors.New(merrors.Validation, fmt.Sprintf("unknown checkpoint %q", s))
	}
}
