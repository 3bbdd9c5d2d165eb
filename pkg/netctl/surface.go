// Package netctl is the Network Control Surface: the single capability
// boundary between the platform-agnostic diagnostic engine and the host's
// network stack. Two variant implementations exist (darwin and linux),
// selected once at startup; everything above this package is platform-free.
package netctl

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

// LinkStatus describes the current WiFi association.
type LinkStatus struct {
	// Associated reports whether a WiFi network is currently joined.
	Associated bool

	// SSID is the joined network name, when associated.
	SSID string

	// Interface is the WiFi interface name (en0, wlan0, ...).
	Interface string

	// Detail carries the raw status line for diagnostics.
	Detail string
}

// PingResult is the result of a single echo probe.
type PingResult struct {
	// Success indicates whether the probe got a reply.
	Success bool

	// RTT is the round-trip time for successful probes.
	RTT time.Duration

	// Error contains the failure, if any.
	Error error
}

// ResolverEntry is one entry in the OS resolver configuration.
type ResolverEntry struct {
	// Index is the entry's position in the resolver list.
	Index int

	// Nameservers are the entry's configured servers.
	Nameservers []string

	// Interface is the interface the entry is scoped to, if any.
	Interface string

	// VPNOrigin reports whether the entry was installed by a VPN
	// (utun/tun/tap/ppp/wg scoped).
	VPNOrigin bool
}

// ARPEntry is one entry from the host's ARP table.
type ARPEntry struct {
	// Host is the IP address of the entry.
	Host string

	// MAC is the hardware address, empty for incomplete entries.
	MAC string

	// Incomplete reports whether resolution for this entry never completed.
	Incomplete bool
}

// Surface is the Network Control Surface capability interface. Query methods
// never mutate state; mutating methods fail with a typed error kind
// (types.SurfaceError), never a raw platform error.
type Surface interface {
	// Platform names the variant ("darwin", "linux", "dry-run", "fake").
	Platform() string

	// GetLinkStatus reports the current WiFi association.
	GetLinkStatus(ctx context.Context) (LinkStatus, error)

	// GetSignal returns the current RSSI in dBm.
	GetSignal(ctx context.Context) (float64, error)

	// Ping sends count echo probes to host, each bounded by timeout.
	Ping(ctx context.Context, host string, count int, timeout time.Duration) ([]PingResult, error)

	// Resolve looks up hostname within timeout.
	Resolve(ctx context.Context, hostname string, timeout time.Duration) ([]string, error)

	// HTTPGet performs a GET against url and returns the status code.
	HTTPGet(ctx context.Context, url string, timeout time.Duration) (int, error)

	// GetResolverProcessLoad returns the resolver service's CPU percent.
	GetResolverProcessLoad(ctx context.Context) (float64, error)

	// GetResolverEntries lists the OS resolver configuration entries.
	GetResolverEntries(ctx context.Context) ([]ResolverEntry, error)

	// VPNActive reports whether a VPN connection is currently up.
	VPNActive(ctx context.Context) (bool, error)

	// GetARPTable lists the host's ARP entries.
	GetARPTable(ctx context.Context) ([]ARPEntry, error)

	// LintPreferenceStore checks the persisted network preference store
	// for structural corruption.
	LintPreferenceStore(ctx context.Context) error

	// FlushDNSCache drops the resolver cache.
	FlushDNSCache(ctx context.Context) error

	// RestartResolverService restarts the OS name-resolution service.
	RestartResolverService(ctx context.Context) error

	// SetDNSServers points the WiFi service at the given resolvers.
	SetDNSServers(ctx context.Context, servers []string) error

	// ResetNetworkLocation resets the network location / connection profile
	// to a clean state. Destructive.
	ResetNetworkLocation(ctx context.Context) error

	// ToggleInterfacePower powers the WiFi interface on or off.
	ToggleInterfacePower(ctx context.Context, on bool) error

	// ClearARPEntries flushes the ARP table.
	ClearARPEntries(ctx context.Context) error
}

// New selects the control surface variant for the current platform. The
// variant is chosen exactly once; callers hold the returned Surface for the
// whole session.
func New(iface string) (Surface, error) {
	switch runtime.GOOS {
	case "darwin":
		return newDarwinSurface(iface), nil
	case "linux":
		return newLinuxSurface(iface), nil
	default:
		return nil, types.NewSurfaceError(types.KindProbeUnsupported, "netctl",
			fmt.Errorf("unsupported platform %q", runtime.GOOS))
	}
}
