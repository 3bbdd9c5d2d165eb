package netctl

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

// airportPath is the private framework utility that reports the current
// association's RSSI. Still present on every macOS release we support.
const airportPath = "/System/Library/PrivateFrameworks/Apple80211.framework/Versions/Current/Resources/airport"

// preferenceStorePaths are the plists the preference lint checks.
var darwinPreferencePaths = []string{
	"/Library/Preferences/SystemConfiguration/preferences.plist",
	"/Library/Preferences/SystemConfiguration/com.apple.airport.preferences.plist",
}

// recoveryLocationName is the network location created by
// ResetNetworkLocation.
const recoveryLocationName = "wifi-doctor-recovery"

var (
	rssiPattern        = regexp.MustCompile(`agrCtlRSSI:\s*(-?\d+)`)
	resolverPattern    = regexp.MustCompile(`^resolver #(\d+)`)
	nameserverPattern  = regexp.MustCompile(`nameserver\[\d+\]\s*:\s*(\S+)`)
	ifNamePattern      = regexp.MustCompile(`if_index\s*:\s*\d+\s*\((\S+)\)`)
	arpPattern         = regexp.MustCompile(`^\S+ \(([\d.]+)\) at (\S+)`)
	cpuSamplePattern   = regexp.MustCompile(`^\s*([\d.]+)\s+(.+)$`)
	airportSSIDPattern = regexp.MustCompile(`\bSSID:\s*(.+)`)
)

// darwinSurface drives the macOS network stack through networksetup, scutil,
// dscacheutil, airport, and arp.
type darwinSurface struct {
	iface  string
	runner commandRunner
	client *http.Client
}

func newDarwinSurface(iface string) *darwinSurface {
	if iface == "" {
		iface = "en0"
	}
	return &darwinSurface{
		iface:  iface,
		runner: &execRunner{},
		client: newProbeHTTPClient(5 * time.Second),
	}
}

func (s *darwinSurface) Platform() string { return "darwin" }

func (s *darwinSurface) GetLinkStatus(ctx context.Context) (LinkStatus, error) {
	output, err := s.runner.Run(ctx, "networksetup", "-getairportnetwork", s.iface)
	if err != nil {
		return LinkStatus{}, classifyProbeError("get_link_status", err)
	}

	status := LinkStatus{Interface: s.iface, Detail: output}
	if strings.Contains(output, "not associated") {
		return status, nil
	}
	if idx := strings.Index(output, "Current Wi-Fi Network:"); idx >= 0 {
		status.Associated = true
		status.SSID = strings.TrimSpace(output[idx+len("Current Wi-Fi Network:"):])
		return status, nil
	}
	// Fall back to the airport utility for older output formats.
	if out, err := s.runner.Run(ctx, airportPath, "-I"); err == nil {
		if m := airportSSIDPattern.FindStringSubmatch(out); m != nil {
			status.Associated = true
			status.SSID = strings.TrimSpace(m[1])
		}
	}
	return status, nil
}

func (s *darwinSurface) GetSignal(ctx context.Context) (float64, error) {
	output, err := s.runner.Run(ctx, airportPath, "-I")
	if err != nil {
		return 0, classifyProbeError("get_signal", err)
	}
	m := rssiPattern.FindStringSubmatch(output)
	if m == nil {
		return 0, types.NewSurfaceError(types.KindProbeUnsupported, "get_signal",
			fmt.Errorf("no RSSI in airport output"))
	}
	rssi, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, types.NewSurfaceError(types.KindProbeUnsupported, "get_signal",
			fmt.Errorf("unparseable RSSI %q: %w", m[1], err))
	}
	return rssi, nil
}

func (s *darwinSurface) Ping(ctx context.Context, host string, count int, timeout time.Duration) ([]PingResult, error) {
	return sharedPing(ctx, s.runner, host, count, timeout)
}

func (s *darwinSurface) Resolve(ctx context.Context, hostname string, timeout time.Duration) ([]string, error) {
	return sharedResolve(ctx, hostname, timeout)
}

func (s *darwinSurface) HTTPGet(ctx context.Context, url string, timeout time.Duration) (int, error) {
	return sharedHTTPGet(ctx, s.client, url, timeout)
}

// GetResolverProcessLoad samples mDNSResponder's CPU utilization from ps.
func (s *darwinSurface) GetResolverProcessLoad(ctx context.Context) (float64, error) {
	output, err := s.runner.Run(ctx, "ps", "-axo", "pcpu,comm")
	if err != nil {
		return 0, classifyProbeError("get_resolver_process_load", err)
	}
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "mDNSResponder") {
			continue
		}
		if m := cpuSamplePattern.FindStringSubmatch(line); m != nil {
			cpu, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			return cpu, nil
		}
	}
	return 0, types.NewSurfaceError(types.KindProbeUnsupported, "get_resolver_process_load",
		fmt.Errorf("mDNSResponder not found in process list"))
}

// GetResolverEntries parses scutil --dns into resolver entries. Entries
// scoped to utun/tun/tap/ppp/wg interfaces are marked VPN-origin.
func (s *darwinSurface) GetResolverEntries(ctx context.Context) ([]ResolverEntry, error) {
	output, err := s.runner.Run(ctx, "scutil", "--dns")
	if err != nil {
		return nil, classifyProbeError("get_resolver_entries", err)
	}

	var entries []ResolverEntry
	var current *ResolverEntry

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if m := resolverPattern.FindStringSubmatch(line); m != nil {
			if current != nil {
				entries = append(entries, *current)
			}
			idx, _ := strconv.Atoi(m[1])
			current = &ResolverEntry{Index: idx}
			continue
		}
		if current == nil {
			continue
		}
		if m := nameserverPattern.FindStringSubmatch(line); m != nil {
			current.Nameservers = append(current.Nameservers, m[1])
		}
		if m := ifNamePattern.FindStringSubmatch(line); m != nil {
			current.Interface = m[1]
			current.VPNOrigin = isVPNInterface(m[1])
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}

	return entries, nil
}

func (s *darwinSurface) VPNActive(ctx context.Context) (bool, error) {
	output, err := s.runner.Run(ctx, "scutil", "--nc", "list")
	if err != nil {
		return false, classifyProbeError("vpn_active", err)
	}
	return strings.Contains(output, "(Connected)"), nil
}

func (s *darwinSurface) GetARPTable(ctx context.Context) ([]ARPEntry, error) {
	output, err := s.runner.Run(ctx, "arp", "-an")
	if err != nil {
		return nil, classifyProbeError("get_arp_table", err)
	}
	return parseARPTable(output), nil
}

// LintPreferenceStore runs plutil -lint over the SystemConfiguration plists.
func (s *darwinSurface) LintPreferenceStore(ctx context.Context) error {
	for _, path := range darwinPreferencePaths {
		output, err := s.runner.Run(ctx, "plutil", "-lint", path)
		if err != nil {
			// A missing airport plist is normal on fresh systems.
			if strings.Contains(output, "no such file") ||
				strings.Contains(output, "file does not exist") {
				continue
			}
			return types.NewSurfaceError(types.KindActionFailed, "lint_preference_store",
				fmt.Errorf("%s failed lint: %s", path, firstLine(output)))
		}
	}
	return nil
}

func (s *darwinSurface) FlushDNSCache(ctx context.Context) error {
	output, err := s.runner.Run(ctx, "dscacheutil", "-flushcache")
	return classifyActionError("flush_dns_cache", output, err)
}

func (s *darwinSurface) RestartResolverService(ctx context.Context) error {
	output, err := s.runner.Run(ctx, "killall", "-HUP", "mDNSResponder")
	return classifyActionError("restart_resolver_service", output, err)
}

func (s *darwinSurface) SetDNSServers(ctx context.Context, servers []string) error {
	args := append([]string{"-setdnsservers", "Wi-Fi"}, servers...)
	output, err := s.runner.Run(ctx, "networksetup", args...)
	if err == nil && strings.Contains(output, "Error") {
		return types.NewSurfaceError(types.KindActionFailed, "set_dns_servers",
			fmt.Errorf("networksetup: %s", firstLine(output)))
	}
	return classifyActionError("set_dns_servers", output, err)
}

// ResetNetworkLocation creates a fresh populated location and switches to it,
// abandoning whatever state the current location accumulated.
func (s *darwinSurface) ResetNetworkLocation(ctx context.Context) error {
	output, err := s.runner.Run(ctx, "networksetup", "-createlocation", recoveryLocationName, "populate")
	if err != nil && !strings.Contains(output, "already exists") {
		return classifyActionError("reset_network_location", output, err)
	}
	output, err = s.runner.Run(ctx, "networksetup", "-switchtolocation", recoveryLocationName)
	return classifyActionError("reset_network_location", output, err)
}

func (s *darwinSurface) ToggleInterfacePower(ctx context.Context, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	output, err := s.runner.Run(ctx, "networksetup", "-setairportpower", s.iface, state)
	return classifyActionError("toggle_interface_power", output, err)
}

func (s *darwinSurface) ClearARPEntries(ctx context.Context) error {
	output, err := s.runner.Run(ctx, "arp", "-d", "-a")
	return classifyActionError("clear_arp_entries", output, err)
}

// isVPNInterface reports whether an interface name looks tunnel-scoped.
func isVPNInterface(name string) bool {
	for _, prefix := range []string{"utun", "tun", "tap", "ppp", "wg", "ipsec"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// parseARPTable parses BSD-style arp -an output.
func parseARPTable(output string) []ARPEntry {
	var entries []ARPEntry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(line, "(incomplete)") {
			if m := arpPattern.FindStringSubmatch(line); m != nil {
				entries = append(entries, ARPEntry{Host: m[1], Incomplete: true})
			} else {
				entries = append(entries, ARPEntry{Incomplete: true})
			}
			continue
		}
		if m := arpPattern.FindStringSubmatch(line); m != nil {
			entries = append(entries, ARPEntry{Host: m[1], MAC: m[2]})
		}
	}
	return entries
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
