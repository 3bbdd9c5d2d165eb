package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

func unresolvedReport() *types.SessionReport {
	started := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	return &types.SessionReport{
		StartedAt:  started,
		FinishedAt: started.Add(6 * time.Second),
		Platform:   "darwin",
		Rounds: []types.ConvergenceRound{
			{
				Number: 1,
				SnapshotBefore: types.Snapshot{
					{ProbeID: types.ProbeLinkAssociation, Status: types.ProbePass},
					types.Measured(types.ProbeSignalStrength, types.ProbeDegraded, -78, "below -70 dBm floor"),
					types.Measured(types.ProbeResolverLoad, types.ProbePass, 3.2, ""),
				},
				Classification: types.Classification{types.IssueWeakSignal},
				ActionsApplied: []types.ActionRecord{
					{
						ActionID:  types.ActionFlushDNSCache,
						Error:     "flush_dns_cache: ActionPermissionDenied",
						ErrorKind: string(types.KindActionPermissionDenied),
					},
				},
				SnapshotAfter: types.Snapshot{
					{ProbeID: types.ProbeLinkAssociation, Status: types.ProbePass},
					types.Measured(types.ProbeSignalStrength, types.ProbeDegraded, -78, "below -70 dBm floor"),
					types.Measured(types.ProbeResolverLoad, types.ProbePass, 3.2, ""),
				},
			},
			{
				Number: 2,
				SnapshotBefore: types.Snapshot{
					{ProbeID: types.ProbeLinkAssociation, Status: types.ProbePass},
					types.Measured(types.ProbeSignalStrength, types.ProbeDegraded, -78, "below -70 dBm floor"),
					types.Measured(types.ProbeResolverLoad, types.ProbePass, 3.2, ""),
				},
				Classification: types.Classification{types.IssueWeakSignal},
			},
		},
		FinalClassification: types.Classification{types.IssueWeakSignal},
		Outcome:             types.OutcomeUnresolved,
	}
}

func TestObserveUpdatesMetrics(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	m.Observe(unresolvedReport())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("Unresolved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsTotal.WithLabelValues("flush_dns_cache")))
	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.ActionErrorsTotal.WithLabelValues("flush_dns_cache", "ActionPermissionDenied")))

	assert.Equal(t, -78.0, testutil.ToFloat64(m.SignalDBm))
	assert.Equal(t, 30.0, testutil.ToFloat64(m.SignalQuality))
	assert.Equal(t, 3.2, testutil.ToFloat64(m.ResolverCPU))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProbeStatus.WithLabelValues("signal_strength")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ProbeStatus.WithLabelValues("link_association")))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssueActive.WithLabelValues("weak_signal")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.IssueActive.WithLabelValues("dns_pollution")))
}

func TestObserveCountsSessionsByOutcome(t *testing.T) {
	m, err := NewMetrics()
	require.NoError(t, err)

	resolved := unresolvedReport()
	resolved.Outcome = types.OutcomeResolved
	m.Observe(resolved)
	m.Observe(unresolvedReport())
	m.Observe(unresolvedReport())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("Resolved")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsTotal.WithLabelValues("Unresolved")))
}

func TestConfigWatcherEmitsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settings: {}\n"), 0o644))

	watcher, err := NewConfigWatcher(path)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := watcher.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("settings: {logLevel: debug}\n"), 0o644))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change event observed")
	}
}

func TestConfigWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("settings: {}\n"), 0o644))

	watcher, err := NewConfigWatcher(path)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := watcher.Start(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x\n"), 0o644))

	select {
	case <-changes:
		t.Fatal("unexpected change event for unrelated file")
	case <-time.After(time.Second):
	}
}

func TestConfigWatcherRejectsEmptyPath(t *testing.T) {
	_, err := NewConfigWatcher("")
	assert.Error(t, err)
}
