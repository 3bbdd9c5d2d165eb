package netctl

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/supporttools/wifi-doctor/pkg/logger"
)

// DryRun wraps a Surface so that mutating calls become logged no-ops while
// query calls pass through. Classification still runs against the real host.
type DryRun struct {
	inner Surface
}

// NewDryRun wraps the given surface in dry-run mode.
func NewDryRun(inner Surface) *DryRun {
	return &DryRun{inner: inner}
}

func (d *DryRun) Platform() string { return d.inner.Platform() }

func (d *DryRun) GetLinkStatus(ctx context.Context) (LinkStatus, error) {
	return d.inner.GetLinkStatus(ctx)
}

func (d *DryRun) GetSignal(ctx context.Context) (float64, error) {
	return d.inner.GetSignal(ctx)
}

func (d *DryRun) Ping(ctx context.Context, host string, count int, timeout time.Duration) ([]PingResult, error) {
	return d.inner.Ping(ctx, host, count, timeout)
}

func (d *DryRun) Resolve(ctx context.Context, hostname string, timeout time.Duration) ([]string, error) {
	return d.inner.Resolve(ctx, hostname, timeout)
}

func (d *DryRun) HTTPGet(ctx context.Context, url string, timeout time.Duration) (int, error) {
	return d.inner.HTTPGet(ctx, url, timeout)
}

func (d *DryRun) GetResolverProcessLoad(ctx context.Context) (float64, error) {
	return d.inner.GetResolverProcessLoad(ctx)
}

func (d *DryRun) GetResolverEntries(ctx context.Context) ([]ResolverEntry, error) {
	return d.inner.GetResolverEntries(ctx)
}

func (d *DryRun) VPNActive(ctx context.Context) (bool, error) {
	return d.inner.VPNActive(ctx)
}

func (d *DryRun) GetARPTable(ctx context.Context) ([]ARPEntry, error) {
	return d.inner.GetARPTable(ctx)
}

func (d *DryRun) LintPreferenceStore(ctx context.Context) error {
	return d.inner.LintPreferenceStore(ctx)
}

func (d *DryRun) FlushDNSCache(ctx context.Context) error {
	return d.skip("flush_dns_cache")
}

func (d *DryRun) RestartResolverService(ctx context.Context) error {
	return d.skip("restart_resolver_service")
}

func (d *DryRun) SetDNSServers(ctx context.Context, servers []string) error {
	return d.skip("set_dns_servers")
}

func (d *DryRun) ResetNetworkLocation(ctx context.Context) error {
	return d.skip("reset_network_location")
}

func (d *DryRun) ToggleInterfacePower(ctx context.Context, on bool) error {
	return d.skip("toggle_interface_power")
}

func (d *DryRun) ClearARPEntries(ctx context.Context) error {
	return d.skip("clear_arp_entries")
}

func (d *DryRun) skip(op string) error {
	logger.WithFields(logrus.Fields{
		"component": "netctl",
		"action":    op,
	}).Info("Dry-run: skipping mutating action")
	return nil
}
