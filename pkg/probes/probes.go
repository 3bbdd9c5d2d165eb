// Package probes implements the diagnostic probe set. Each probe is a pure
// query against the Network Control Surface with its own timeout: it never
// mutates state, and it always produces a result: a probe that times out
// reports Fail with detail "timeout", never an unhandled error.
package probes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/supporttools/wifi-doctor/pkg/logger"
	"github.com/supporttools/wifi-doctor/pkg/netctl"
	"github.com/supporttools/wifi-doctor/pkg/types"
)

// timeoutDetail is the detail string for probes that hit their deadline.
const timeoutDetail = "timeout"

// Prober executes the probe set against a control surface.
type Prober struct {
	surface    netctl.Surface
	thresholds types.Thresholds
	targets    types.Targets
}

// New creates a Prober bound to the given surface and configuration.
func New(surface netctl.Surface, cfg *types.Config) *Prober {
	return &Prober{
		surface:    surface,
		thresholds: cfg.Thresholds,
		targets:    cfg.Targets,
	}
}

// RunAll executes every probe in the fixed order and returns a complete
// snapshot: exactly one result per known probe, in execution order. Probes
// run strictly sequentially so no probe observes another's side effects.
func (p *Prober) RunAll(ctx context.Context) types.Snapshot {
	snapshot := make(types.Snapshot, 0, len(types.ProbeOrder))
	for _, id := range types.ProbeOrder {
		result := p.runOne(ctx, id)
		logger.WithFields(logrus.Fields{
			"component": "probes",
			"probe":     string(id),
			"status":    string(result.Status),
			"detail":    result.Detail,
		}).Debug("Probe complete")
		snapshot = append(snapshot, result)
	}
	return snapshot
}

// runOne dispatches a single probe under its timeout.
func (p *Prober) runOne(ctx context.Context, id types.ProbeID) types.ProbeResult {
	timeout := p.targets.ProbeTimeout
	if id == types.ProbePingReachability {
		// The ping probe owns count echoes, each with its own deadline.
		timeout = time.Duration(p.targets.PingCount)*p.targets.PingTimeout + time.Second
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch id {
	case types.ProbeLinkAssociation:
		return p.probeLinkAssociation(probeCtx)
	case types.ProbeSignalStrength:
		return p.probeSignalStrength(probeCtx)
	case types.ProbePingReachability:
		return p.probePingReachability(probeCtx)
	case types.ProbeDNSResolution:
		return p.probeDNSResolution(probeCtx)
	case types.ProbeHTTPReachability:
		return p.probeHTTP(probeCtx, types.ProbeHTTPReachability, p.targets.HTTPTarget)
	case types.ProbeHTTPSReachability:
		return p.probeHTTP(probeCtx, types.ProbeHTTPSReachability, p.targets.HTTPSTarget)
	case types.ProbeResolverLoad:
		return p.probeResolverLoad(probeCtx)
	case types.ProbeStaleResolverEntries:
		return p.probeStaleResolverEntries(probeCtx)
	case types.ProbeARPAnomalyCount:
		return p.probeARPAnomalyCount(probeCtx)
	case types.ProbePreferenceIntegrity:
		return p.probePreferenceIntegrity(probeCtx)
	default:
		return types.ProbeResult{ProbeID: id, Status: types.ProbeFail, Detail: "unknown probe"}
	}
}

func (p *Prober) probeLinkAssociation(ctx context.Context) types.ProbeResult {
	status, err := p.surface.GetLinkStatus(ctx)
	if err != nil {
		return failed(types.ProbeLinkAssociation, err)
	}
	if !status.Associated {
		detail := "no WiFi network associated"
		if status.Detail != "" {
			detail = status.Detail
		}
		return types.ProbeResult{ProbeID: types.ProbeLinkAssociation, Status: types.ProbeFail, Detail: detail}
	}
	return types.ProbeResult{
		ProbeID: types.ProbeLinkAssociation,
		Status:  types.ProbePass,
		Detail:  fmt.Sprintf("associated with %q on %s", status.SSID, status.Interface),
	}
}

func (p *Prober) probeSignalStrength(ctx context.Context) types.ProbeResult {
	rssi, err := p.surface.GetSignal(ctx)
	if err != nil {
		return failed(types.ProbeSignalStrength, err)
	}

	detail := fmt.Sprintf("%.0f dBm (quality %d%%)", rssi, SignalQuality(rssi))
	status := types.ProbePass
	if rssi < p.thresholds.SignalFloorDBm {
		status = types.ProbeDegraded
	}
	return types.Measured(types.ProbeSignalStrength, status, rssi, detail)
}

func (p *Prober) probePingReachability(ctx context.Context) types.ProbeResult {
	results, err := p.surface.Ping(ctx, p.targets.PingTarget, p.targets.PingCount, p.targets.PingTimeout)
	if err != nil && len(results) == 0 {
		return failed(types.ProbePingReachability, err)
	}

	succeeded := 0
	var best time.Duration
	for _, r := range results {
		if r.Success {
			succeeded++
			if best == 0 || r.RTT < best {
				best = r.RTT
			}
		}
	}

	detail := fmt.Sprintf("%d/%d replies from %s", succeeded, p.targets.PingCount, p.targets.PingTarget)
	if succeeded == 0 {
		return types.Measured(types.ProbePingReachability, types.ProbeFail, 0, detail)
	}
	return types.Measured(types.ProbePingReachability, types.ProbePass,
		float64(best.Milliseconds()), detail+fmt.Sprintf(", best rtt %v", best))
}

func (p *Prober) probeDNSResolution(ctx context.Context) types.ProbeResult {
	addrs, err := p.surface.Resolve(ctx, p.targets.ResolveHost, p.targets.ProbeTimeout)
	if err != nil {
		return failed(types.ProbeDNSResolution, err)
	}
	if len(addrs) == 0 {
		return types.ProbeResult{
			ProbeID: types.ProbeDNSResolution,
			Status:  types.ProbeFail,
			Detail:  fmt.Sprintf("%s resolved to no addresses", p.targets.ResolveHost),
		}
	}
	return types.ProbeResult{
		ProbeID: types.ProbeDNSResolution,
		Status:  types.ProbePass,
		Detail:  fmt.Sprintf("%s -> %s", p.targets.ResolveHost, addrs[0]),
	}
}

// probeHTTP passes on any response within the timeout; a 5xx still proves
// the transport and application path work end to end.
func (p *Prober) probeHTTP(ctx context.Context, id types.ProbeID, url string) types.ProbeResult {
	status, err := p.surface.HTTPGet(ctx, url, p.targets.HTTPTimeout)
	if err != nil {
		return failed(id, err)
	}
	return types.Measured(id, types.ProbePass, float64(status),
		fmt.Sprintf("GET %s -> %d", url, status))
}

func (p *Prober) probeResolverLoad(ctx context.Context) types.ProbeResult {
	cpu, err := p.surface.GetResolverProcessLoad(ctx)
	if err != nil {
		return failed(types.ProbeResolverLoad, err)
	}

	status := types.ProbePass
	if cpu > p.thresholds.ResolverCPUPercent {
		status = types.ProbeDegraded
	}
	return types.Measured(types.ProbeResolverLoad, status, cpu,
		fmt.Sprintf("resolver at %.1f%% CPU", cpu))
}

func (p *Prober) probeStaleResolverEntries(ctx context.Context) types.ProbeResult {
	entries, err := p.surface.GetResolverEntries(ctx)
	if err != nil {
		return failed(types.ProbeStaleResolverEntries, err)
	}

	stale := 0
	for _, e := range entries {
		if e.VPNOrigin {
			stale++
		}
	}
	if stale == 0 {
		return types.Measured(types.ProbeStaleResolverEntries, types.ProbePass, 0, "no VPN-origin resolver entries")
	}

	vpnActive, err := p.surface.VPNActive(ctx)
	if err != nil {
		return failed(types.ProbeStaleResolverEntries, err)
	}
	if vpnActive {
		return types.Measured(types.ProbeStaleResolverEntries, types.ProbePass, float64(stale),
			fmt.Sprintf("%d VPN-origin entries, VPN active", stale))
	}
	return types.Measured(types.ProbeStaleResolverEntries, types.ProbeFail, float64(stale),
		fmt.Sprintf("%d VPN-origin resolver entries with no VPN active", stale))
}

func (p *Prober) probeARPAnomalyCount(ctx context.Context) types.ProbeResult {
	entries, err := p.surface.GetARPTable(ctx)
	if err != nil {
		return failed(types.ProbeARPAnomalyCount, err)
	}

	incomplete := 0
	for _, e := range entries {
		if e.Incomplete {
			incomplete++
		}
	}
	status := types.ProbePass
	if incomplete > 0 {
		status = types.ProbeDegraded
	}
	return types.Measured(types.ProbeARPAnomalyCount, status, float64(incomplete),
		fmt.Sprintf("%d incomplete of %d ARP entries", incomplete, len(entries)))
}

func (p *Prober) probePreferenceIntegrity(ctx context.Context) types.ProbeResult {
	if err := p.surface.LintPreferenceStore(ctx); err != nil {
		return failed(types.ProbePreferenceIntegrity, err)
	}
	return types.ProbeResult{
		ProbeID: types.ProbePreferenceIntegrity,
		Status:  types.ProbePass,
		Detail:  "preference store lint clean",
	}
}

// failed converts a surface error into a Fail result, folding deadline
// expiry into the "timeout" detail.
func failed(id types.ProbeID, err error) types.ProbeResult {
	detail := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		detail = timeoutDetail
	}
	var se *types.SurfaceError
	if errors.As(err, &se) && se.Kind == types.KindProbeTimeout {
		detail = timeoutDetail
	}
	return types.ProbeResult{ProbeID: id, Status: types.ProbeFail, Detail: detail}
}

// SignalQuality maps an RSSI reading to a rough quality percentage.
func SignalQuality(rssi float64) int {
	switch {
	case rssi >= -50:
		return 100
	case rssi >= -60:
		return 70
	case rssi >= -70:
		return 50
	case rssi >= -80:
		return 30
	default:
		return 10
	}
}
