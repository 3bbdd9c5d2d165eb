package netctl

import (
	"context"
	"time"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

// FakeSurface is a scripted Surface for tests. Each field holds the canned
// response for the corresponding call; mutating calls are recorded in Calls.
// The zero value behaves as a fully healthy host.
type FakeSurface struct {
	Link          LinkStatus
	LinkErr       error
	RSSI          float64
	SignalErr     error
	PingResults   []PingResult
	PingErr       error
	Addrs         []string
	ResolveErr    error
	HTTPStatus    int
	HTTPErr       error
	ResolverCPU   float64
	ResolverErr   error
	Entries       []ResolverEntry
	EntriesErr    error
	VPN           bool
	VPNErr        error
	ARP           []ARPEntry
	ARPErr        error
	LintErr       error
	ActionErrs    map[string]error
	Calls         []string
	ProbeDelay    time.Duration
	PlatformLabel string
}

// NewHealthyFake returns a fake surface describing a fully healthy host.
func NewHealthyFake() *FakeSurface {
	return &FakeSurface{
		Link:        LinkStatus{Associated: true, SSID: "HomeNet", Interface: "en0"},
		RSSI:        -52,
		PingResults: []PingResult{{Success: true, RTT: 12 * time.Millisecond}},
		Addrs:       []string{"142.250.64.100"},
		HTTPStatus:  200,
		ResolverCPU: 1.5,
	}
}

func (f *FakeSurface) Platform() string {
	if f.PlatformLabel != "" {
		return f.PlatformLabel
	}
	return "fake"
}

// delay simulates probe latency; a ProbeDelay beyond the caller's context
// deadline produces context.DeadlineExceeded, like a real stuck command.
func (f *FakeSurface) delay(ctx context.Context) error {
	if f.ProbeDelay == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(f.ProbeDelay):
		return nil
	}
}

func (f *FakeSurface) GetLinkStatus(ctx context.Context) (LinkStatus, error) {
	if err := f.delay(ctx); err != nil {
		return LinkStatus{}, err
	}
	return f.Link, f.LinkErr
}

func (f *FakeSurface) GetSignal(ctx context.Context) (float64, error) {
	if err := f.delay(ctx); err != nil {
		return 0, err
	}
	return f.RSSI, f.SignalErr
}

func (f *FakeSurface) Ping(ctx context.Context, host string, count int, timeout time.Duration) ([]PingResult, error) {
	if err := f.delay(ctx); err != nil {
		return nil, err
	}
	if f.PingErr != nil {
		return nil, f.PingErr
	}
	// Cycle scripted results out to count probes.
	results := make([]PingResult, count)
	for i := 0; i < count; i++ {
		if len(f.PingResults) == 0 {
			results[i] = PingResult{Success: true, RTT: 10 * time.Millisecond}
		} else {
			results[i] = f.PingResults[i%len(f.PingResults)]
		}
	}
	return results, nil
}

func (f *FakeSurface) Resolve(ctx context.Context, hostname string, timeout time.Duration) ([]string, error) {
	if err := f.delay(ctx); err != nil {
		return nil, err
	}
	return f.Addrs, f.ResolveErr
}

func (f *FakeSurface) HTTPGet(ctx context.Context, url string, timeout time.Duration) (int, error) {
	if err := f.delay(ctx); err != nil {
		return 0, err
	}
	return f.HTTPStatus, f.HTTPErr
}

func (f *FakeSurface) GetResolverProcessLoad(ctx context.Context) (float64, error) {
	if err := f.delay(ctx); err != nil {
		return 0, err
	}
	return f.ResolverCPU, f.ResolverErr
}

func (f *FakeSurface) GetResolverEntries(ctx context.Context) ([]ResolverEntry, error) {
	if err := f.delay(ctx); err != nil {
		return nil, err
	}
	return f.Entries, f.EntriesErr
}

func (f *FakeSurface) VPNActive(ctx context.Context) (bool, error) {
	if err := f.delay(ctx); err != nil {
		return false, err
	}
	return f.VPN, f.VPNErr
}

func (f *FakeSurface) GetARPTable(ctx context.Context) ([]ARPEntry, error) {
	if err := f.delay(ctx); err != nil {
		return nil, err
	}
	return f.ARP, f.ARPErr
}

func (f *FakeSurface) LintPreferenceStore(ctx context.Context) error {
	if err := f.delay(ctx); err != nil {
		return err
	}
	return f.LintErr
}

func (f *FakeSurface) FlushDNSCache(ctx context.Context) error {
	return f.mutate("flush_dns_cache")
}

func (f *FakeSurface) RestartResolverService(ctx context.Context) error {
	return f.mutate("restart_resolver_service")
}

func (f *FakeSurface) SetDNSServers(ctx context.Context, servers []string) error {
	return f.mutate("set_dns_servers")
}

func (f *FakeSurface) ResetNetworkLocation(ctx context.Context) error {
	return f.mutate("reset_network_location")
}

func (f *FakeSurface) ToggleInterfacePower(ctx context.Context, on bool) error {
	return f.mutate("toggle_interface_power")
}

func (f *FakeSurface) ClearARPEntries(ctx context.Context) error {
	return f.mutate("clear_arp_entries")
}

func (f *FakeSurface) mutate(op string) error {
	f.Calls = append(f.Calls, op)
	if err, ok := f.ActionErrs[op]; ok {
		return err
	}
	return nil
}

// Heal rescripts the fake to the healthy baseline, keeping the mutation log.
// Tests use it to simulate a remediation that worked.
func (f *FakeSurface) Heal() {
	healthy := NewHealthyFake()
	calls := f.Calls
	actionErrs := f.ActionErrs
	*f = *healthy
	f.Calls = calls
	f.ActionErrs = actionErrs
}

var _ Surface = (*FakeSurface)(nil)
var _ Surface = (*DryRun)(nil)

// Compile-time interface checks for the platform variants.
var (
	_ Surface = (*darwinSurface)(nil)
	_ Surface = (*linuxSurface)(nil)
)

// ScriptActionFailure scripts a typed failure for the given mutating call.
func (f *FakeSurface) ScriptActionFailure(op string, kind types.ErrorKind) {
	if f.ActionErrs == nil {
		f.ActionErrs = map[string]error{}
	}
	f.ActionErrs[op] = types.NewSurfaceError(kind, op, nil)
}
