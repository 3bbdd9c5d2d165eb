package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/supporttools/wifi-doctor/pkg/history"
	"github.com/supporttools/wifi-doctor/pkg/logger"
	"github.com/supporttools/wifi-doctor/pkg/watch"
)

var watchInterval time.Duration

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously monitor WiFi health",
		Long: `Run diagnostic sessions on an interval, publish Prometheus metrics, and
persist results to the session history. Configuration file changes are
applied without restarting.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().DurationVar(&watchInterval, "interval", 0, "Override the monitoring interval")
	cmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Skip mutating actions, still probe and classify")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, surface, err := loadSetup()
	if err != nil {
		return err
	}
	if watchInterval > 0 {
		cfg.Watch.Interval = watchInterval
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	var store *history.Store
	if cfg.History.Enabled && cfg.History.Path != "" {
		if store, err = history.Open(cfg.History.Path, cfg.History.Keep); err != nil {
			logger.WithError(err).Warn("History disabled: store could not be opened")
			store = nil
		} else {
			defer store.Close()
		}
	}

	runner, err := watch.NewRunner(surface, cfg, configPath, dryRunFlag, store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("interval", cfg.Watch.Interval).Info("Starting watch mode")
	return runner.Run(ctx)
}
