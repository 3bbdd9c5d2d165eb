package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/supporttools/wifi-doctor/pkg/engine"
	"github.com/supporttools/wifi-doctor/pkg/history"
	"github.com/supporttools/wifi-doctor/pkg/logger"
	"github.com/supporttools/wifi-doctor/pkg/report"
	"github.com/supporttools/wifi-doctor/pkg/types"
)

var (
	maxRoundsFlag int
	dryRunFlag    bool
	reportFile    string
	verboseFlag   bool
)

func addDiagnoseFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&maxRoundsFlag, "max-rounds", 0, "Override the convergence round budget")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Skip mutating actions, still probe and classify")
	cmd.Flags().StringVar(&reportFile, "report-file", "", "Write the session report as JSON to this file (\"-\" for stdout)")
	cmd.Flags().BoolVar(&verboseFlag, "verbose", false, "Show every round's full probe table")
}

func newDiagnoseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Run one diagnostic session",
		Long: `Run probes, classify the results, apply remediations, and re-test until
the network is healthy or the round budget is exhausted.

Exit code is 0 when the session ends Resolved, 2 when no WiFi network is
associated, and 1 otherwise.`,
		Args: cobra.NoArgs,
		RunE: runDiagnose,
	}
	addDiagnoseFlags(cmd)
	return cmd
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	cfg, surface, err := loadSetup()
	if err != nil {
		return err
	}
	if maxRoundsFlag > 0 {
		cfg.Thresholds.MaxRounds = maxRoundsFlag
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var spin *spinner.Spinner
	if isatty.IsTerminal(os.Stdout.Fd()) {
		spin = spinner.New(spinner.CharSets[11], 100*time.Millisecond)
		spin.Suffix = " Running diagnostics..."
		spin.Start()
	}

	eng := engine.New(surface, cfg, dryRunFlag)
	result, runErr := eng.Run(ctx)

	if spin != nil {
		spin.Stop()
	}

	reporters := report.Multi{report.NewConsole(verboseFlag)}
	if reportFile != "" {
		reporters = append(reporters, report.NewJSONFile(reportFile))
	}
	if result != nil {
		if err := reporters.Report(result); err != nil {
			logger.WithError(err).Warn("Failed to render session report")
		}
		saveHistory(cfg, result)
	}

	if runErr != nil {
		return runErr
	}
	if result.Outcome != types.OutcomeResolved {
		return errUnhealthy
	}
	return nil
}

// saveHistory persists the session when history is enabled. Persistence is
// best-effort; a failure is logged and the session result stands.
func saveHistory(cfg *types.Config, result *types.SessionReport) {
	if !cfg.History.Enabled || cfg.History.Path == "" {
		return
	}
	store, err := history.Open(cfg.History.Path, cfg.History.Keep)
	if err != nil {
		logger.WithError(err).Warn("Failed to open history store")
		return
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Save(ctx, result); err != nil {
		logger.WithError(err).Warn("Failed to persist session history")
	}
}
