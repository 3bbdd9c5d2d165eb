package watch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supporttools/wifi-doctor/pkg/logger"
	"github.com/supporttools/wifi-doctor/pkg/probes"
	"github.com/supporttools/wifi-doctor/pkg/types"
)

// Metrics holds the Prometheus metrics published by watch mode.
type Metrics struct {
	SessionsTotal     *prometheus.CounterVec
	ActionsTotal      *prometheus.CounterVec
	ActionErrorsTotal *prometheus.CounterVec

	ProbeStatus    *prometheus.GaugeVec
	IssueActive    *prometheus.GaugeVec
	SignalDBm      prometheus.Gauge
	SignalQuality  prometheus.Gauge
	ResolverCPU    prometheus.Gauge
	LastRunSeconds prometheus.Gauge

	SessionDuration prometheus.Histogram

	registry *prometheus.Registry
}

// NewMetrics creates and registers the watch mode metric set.
func NewMetrics() (*Metrics, error) {
	const namespace = "wifi_doctor"

	m := &Metrics{
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_total",
				Help:      "Total diagnostic sessions run, by outcome",
			},
			[]string{"outcome"},
		),
		ActionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Total remediation actions attempted, by action",
			},
			[]string{"action"},
		),
		ActionErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "action_errors_total",
				Help:      "Total remediation action failures, by action and kind",
			},
			[]string{"action", "kind"},
		),
		ProbeStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "probe_status",
				Help:      "Latest probe status (0 Pass, 1 Degraded, 2 Fail)",
			},
			[]string{"probe"},
		),
		IssueActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "issue_active",
				Help:      "Whether an issue tag is present in the latest classification",
			},
			[]string{"issue"},
		),
		SignalDBm: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signal_dbm",
			Help:      "Latest measured WiFi RSSI in dBm",
		}),
		SignalQuality: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signal_quality",
			Help:      "Latest WiFi signal quality on a 0-100 scale",
		}),
		ResolverCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resolver_cpu_percent",
			Help:      "Latest resolver process CPU utilization",
		}),
		LastRunSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last completed session",
		}),
		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Wall-clock duration of diagnostic sessions",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		registry: prometheus.NewRegistry(),
	}

	cs := []prometheus.Collector{
		m.SessionsTotal, m.ActionsTotal, m.ActionErrorsTotal,
		m.ProbeStatus, m.IssueActive,
		m.SignalDBm, m.SignalQuality, m.ResolverCPU, m.LastRunSeconds,
		m.SessionDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Observe updates the metric set from one finished session.
func (m *Metrics) Observe(report *types.SessionReport) {
	m.SessionsTotal.WithLabelValues(string(report.Outcome)).Inc()
	m.SessionDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	m.LastRunSeconds.Set(float64(report.FinishedAt.Unix()))

	for _, round := range report.Rounds {
		for _, record := range round.ActionsApplied {
			m.ActionsTotal.WithLabelValues(string(record.ActionID)).Inc()
			if record.ErrorKind != "" {
				m.ActionErrorsTotal.WithLabelValues(string(record.ActionID), record.ErrorKind).Inc()
			}
		}
	}

	if len(report.Rounds) == 0 {
		return
	}
	last := report.Rounds[len(report.Rounds)-1]
	snapshot := last.SnapshotAfter
	if snapshot == nil {
		snapshot = last.SnapshotBefore
	}

	for _, result := range snapshot {
		m.ProbeStatus.WithLabelValues(string(result.ProbeID)).Set(statusValue(result.Status))
		if result.Value == nil {
			continue
		}
		switch result.ProbeID {
		case types.ProbeSignalStrength:
			m.SignalDBm.Set(*result.Value)
			m.SignalQuality.Set(float64(probes.SignalQuality(*result.Value)))
		case types.ProbeResolverLoad:
			m.ResolverCPU.Set(*result.Value)
		}
	}

	m.IssueActive.Reset()
	for _, tag := range allIssueTags {
		active := 0.0
		if report.FinalClassification.Has(tag) {
			active = 1.0
		}
		m.IssueActive.WithLabelValues(string(tag)).Set(active)
	}
}

var allIssueTags = []types.IssueTag{
	types.IssueDNSPollution,
	types.IssueResolverOverload,
	types.IssueWeakSignal,
	types.IssueARPConflict,
	types.IssuePreferenceCorruption,
	types.IssueSevereOutage,
}

func statusValue(status types.ProbeStatus) float64 {
	switch status {
	case types.ProbePass:
		return 0
	case types.ProbeDegraded:
		return 1
	default:
		return 2
	}
}

// Serve starts the metrics HTTP server. The server runs until ctx is
// cancelled, then shuts down gracefully.
func (m *Metrics) Serve(ctx context.Context, addr, path string) error {
	handler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy","service":"wifi-doctor"}`))
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", addr).Info("Starting metrics server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
