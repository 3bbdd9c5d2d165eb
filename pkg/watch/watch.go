// Package watch runs the diagnostic engine continuously: one session per
// interval, results logged, persisted to history, and published as
// Prometheus metrics. Configuration changes are picked up without a restart.
package watch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/supporttools/wifi-doctor/pkg/engine"
	"github.com/supporttools/wifi-doctor/pkg/history"
	"github.com/supporttools/wifi-doctor/pkg/logger"
	"github.com/supporttools/wifi-doctor/pkg/netctl"
	"github.com/supporttools/wifi-doctor/pkg/report"
	"github.com/supporttools/wifi-doctor/pkg/types"
	"github.com/supporttools/wifi-doctor/pkg/util"
)

// Runner drives the continuous monitoring loop.
type Runner struct {
	surface    netctl.Surface
	cfg        *types.Config
	configPath string
	dryRun     bool
	metrics    *Metrics
	store      *history.Store
	reporter   report.Reporter
	log        *logrus.Entry
}

// NewRunner prepares watch mode. configPath may be empty, in which case hot
// reload is disabled. store may be nil when history is disabled.
func NewRunner(surface netctl.Surface, cfg *types.Config, configPath string, dryRun bool, store *history.Store) (*Runner, error) {
	metrics, err := NewMetrics()
	if err != nil {
		return nil, err
	}
	return &Runner{
		surface:    surface,
		cfg:        cfg,
		configPath: configPath,
		dryRun:     dryRun,
		metrics:    metrics,
		store:      store,
		reporter:   report.NewLog(),
		log:        logger.WithField("component", "watch"),
	}, nil
}

// Run blocks until ctx is cancelled. One diagnostic session runs immediately
// and then once per configured interval.
func (r *Runner) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- r.metrics.Serve(ctx, r.cfg.Watch.MetricsBindAddress, r.cfg.Watch.MetricsPath)
	}()

	var reloadCh <-chan struct{}
	if r.configPath != "" {
		watcher, err := NewConfigWatcher(r.configPath)
		if err != nil {
			return err
		}
		defer watcher.Close()
		if reloadCh, err = watcher.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(r.cfg.Watch.Interval)
	defer ticker.Stop()

	r.runSession(ctx)
	for {
		select {
		case <-ctx.Done():
			return <-serveErr
		case err := <-serveErr:
			return err
		case <-reloadCh:
			r.reloadConfig(ticker)
		case <-ticker.C:
			r.runSession(ctx)
		}
	}
}

// runSession executes one full diagnostic session. Each session gets a fresh
// engine so per-session state, like the destructive-action ledger, starts
// clean.
func (r *Runner) runSession(ctx context.Context) {
	eng := engine.New(r.surface, r.cfg, r.dryRun)
	result, err := eng.Run(ctx)
	if err != nil {
		if types.IsNoLink(err) {
			r.log.WithError(err).Error("No WiFi association; skipping remediation until the link returns")
		} else {
			r.log.WithError(err).Error("Diagnostic session failed")
		}
	}
	if result == nil {
		return
	}

	r.metrics.Observe(result)
	if reportErr := r.reporter.Report(result); reportErr != nil {
		r.log.WithError(reportErr).Warn("Failed to report session")
	}
	if r.store != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if saveErr := r.store.Save(saveCtx, result); saveErr != nil {
			r.log.WithError(saveErr).Warn("Failed to persist session history")
		}
		cancel()
	}
}

// reloadConfig re-reads the config file and applies the new thresholds and
// interval. A broken config is rejected and the previous one stays active.
func (r *Runner) reloadConfig(ticker *time.Ticker) {
	fresh, err := util.LoadConfig(r.configPath)
	if err != nil {
		r.log.WithError(err).Warn("Ignoring invalid config change")
		return
	}

	// The metrics server keeps its original bind address; rebinding a
	// listener mid-flight is not worth the churn for a laptop daemon.
	fresh.Watch.MetricsBindAddress = r.cfg.Watch.MetricsBindAddress
	fresh.Watch.MetricsPath = r.cfg.Watch.MetricsPath

	if fresh.Watch.Interval != r.cfg.Watch.Interval {
		ticker.Reset(fresh.Watch.Interval)
	}
	r.cfg = fresh
	r.log.WithFields(logrus.Fields{
		"interval":    fresh.Watch.Interval,
		"signalFloor": fresh.Thresholds.SignalFloorDBm,
		"maxRounds":   fresh.Thresholds.MaxRounds,
	}).Info("Configuration reloaded")
}
