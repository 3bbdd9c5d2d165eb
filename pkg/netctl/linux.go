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

var (
	iwSignalPattern   = regexp.MustCompile(`signal:\s*(-?\d+(?:\.\d+)?)\s*dBm`)
	iwSSIDPattern     = regexp.MustCompile(`(?m)^\s*(?:SSID|ssid):\s*(.+)$`)
	iwconfigRSSI      = regexp.MustCompile(`Signal level=(-?\d+)`)
	ipNeighPattern    = regexp.MustCompile(`^([\d.]+)\s+dev\s+\S+(?:\s+lladdr\s+(\S+))?.*\b(REACHABLE|STALE|DELAY|PROBE|INCOMPLETE|FAILED|PERMANENT)\b`)
	resolvectlServer  = regexp.MustCompile(`DNS Servers:\s*(.+)`)
	resolvectlLink    = regexp.MustCompile(`^Link\s+\d+\s+\((\S+)\)`)
	psCPUPattern      = regexp.MustCompile(`^\s*([\d.]+)\s*$`)
)

// linuxSurface drives the Linux network stack through nmcli, iw, resolvectl,
// systemctl, ip, and arp, preferring NetworkManager when present.
type linuxSurface struct {
	iface  string
	runner commandRunner
	client *http.Client
}

func newLinuxSurface(iface string) *linuxSurface {
	if iface == "" {
		iface = "wlan0"
	}
	return &linuxSurface{
		iface:  iface,
		runner: &execRunner{},
		client: newProbeHTTPClient(5 * time.Second),
	}
}

func (s *linuxSurface) Platform() string { return "linux" }

func (s *linuxSurface) GetLinkStatus(ctx context.Context) (LinkStatus, error) {
	// nmcli first; iw link as fallback for NetworkManager-less hosts.
	output, err := s.runner.Run(ctx, "nmcli", "-t", "-f", "DEVICE,TYPE,STATE,CONNECTION", "device")
	if err == nil {
		for _, line := range strings.Split(output, "\n") {
			parts := strings.SplitN(line, ":", 4)
			if len(parts) < 4 || parts[1] != "wifi" {
				continue
			}
			status := LinkStatus{Interface: parts[0], Detail: line}
			if parts[2] == "connected" {
				status.Associated = true
				status.SSID = parts[3]
			}
			return status, nil
		}
	}

	output, iwErr := s.runner.Run(ctx, "iw", "dev", s.iface, "link")
	if iwErr != nil {
		return LinkStatus{}, classifyProbeError("get_link_status", iwErr)
	}
	status := LinkStatus{Interface: s.iface, Detail: firstLine(output)}
	if strings.HasPrefix(output, "Connected to") {
		status.Associated = true
		if m := iwSSIDPattern.FindStringSubmatch(output); m != nil {
			status.SSID = strings.TrimSpace(m[1])
		}
	}
	return status, nil
}

func (s *linuxSurface) GetSignal(ctx context.Context) (float64, error) {
	output, err := s.runner.Run(ctx, "iw", "dev", s.iface, "link")
	if err == nil {
		if m := iwSignalPattern.FindStringSubmatch(output); m != nil {
			return strconv.ParseFloat(m[1], 64)
		}
	}

	// Legacy fallback.
	output, iwcErr := s.runner.Run(ctx, "iwconfig", s.iface)
	if iwcErr != nil {
		if err != nil {
			return 0, classifyProbeError("get_signal", err)
		}
		return 0, classifyProbeError("get_signal", iwcErr)
	}
	if m := iwconfigRSSI.FindStringSubmatch(output); m != nil {
		return strconv.ParseFloat(m[1], 64)
	}
	return 0, types.NewSurfaceError(types.KindProbeUnsupported, "get_signal",
		fmt.Errorf("no signal level in iw/iwconfig output"))
}

func (s *linuxSurface) Ping(ctx context.Context, host string, count int, timeout time.Duration) ([]PingResult, error) {
	return sharedPing(ctx, s.runner, host, count, timeout)
}

func (s *linuxSurface) Resolve(ctx context.Context, hostname string, timeout time.Duration) ([]string, error) {
	return sharedResolve(ctx, hostname, timeout)
}

func (s *linuxSurface) HTTPGet(ctx context.Context, url string, timeout time.Duration) (int, error) {
	return sharedHTTPGet(ctx, s.client, url, timeout)
}

// GetResolverProcessLoad samples systemd-resolved's CPU utilization.
func (s *linuxSurface) GetResolverProcessLoad(ctx context.Context) (float64, error) {
	output, err := s.runner.Run(ctx, "ps", "-C", "systemd-resolved", "-o", "pcpu=")
	if err != nil {
		return 0, classifyProbeError("get_resolver_process_load", err)
	}
	for _, line := range strings.Split(output, "\n") {
		if m := psCPUPattern.FindStringSubmatch(line); m != nil {
			return strconv.ParseFloat(m[1], 64)
		}
	}
	return 0, types.NewSurfaceError(types.KindProbeUnsupported, "get_resolver_process_load",
		fmt.Errorf("systemd-resolved not found in process list"))
}

// GetResolverEntries parses resolvectl status into per-link entries.
func (s *linuxSurface) GetResolverEntries(ctx context.Context) ([]ResolverEntry, error) {
	output, err := s.runner.Run(ctx, "resolvectl", "status")
	if err != nil {
		return nil, classifyProbeError("get_resolver_entries", err)
	}

	var entries []ResolverEntry
	var current *ResolverEntry
	index := 0

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := resolvectlLink.FindStringSubmatch(trimmed); m != nil {
			if current != nil {
				entries = append(entries, *current)
			}
			index++
			current = &ResolverEntry{
				Index:     index,
				Interface: m[1],
				VPNOrigin: isVPNInterface(m[1]),
			}
			continue
		}
		if m := resolvectlServer.FindStringSubmatch(trimmed); m != nil {
			servers := strings.Fields(m[1])
			if current != nil {
				current.Nameservers = append(current.Nameservers, servers...)
			} else {
				// Global section before any link.
				index++
				entries = append(entries, ResolverEntry{Index: index, Nameservers: servers})
			}
		}
	}
	if current != nil {
		entries = append(entries, *current)
	}

	return entries, nil
}

func (s *linuxSurface) VPNActive(ctx context.Context) (bool, error) {
	output, err := s.runner.Run(ctx, "nmcli", "-t", "-f", "TYPE,STATE", "connection", "show", "--active")
	if err != nil {
		return false, classifyProbeError("vpn_active", err)
	}
	for _, line := range strings.Split(output, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		switch parts[0] {
		case "vpn", "wireguard", "tun":
			if parts[1] == "activated" {
				return true, nil
			}
		}
	}
	return false, nil
}

// GetARPTable parses ip neigh; INCOMPLETE and FAILED states count as
// incomplete entries.
func (s *linuxSurface) GetARPTable(ctx context.Context) ([]ARPEntry, error) {
	output, err := s.runner.Run(ctx, "ip", "neigh", "show")
	if err != nil {
		return nil, classifyProbeError("get_arp_table", err)
	}

	var entries []ARPEntry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := ipNeighPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entries = append(entries, ARPEntry{
			Host:       m[1],
			MAC:        m[2],
			Incomplete: m[3] == "INCOMPLETE" || m[3] == "FAILED",
		})
	}
	return entries, nil
}

// LintPreferenceStore verifies NetworkManager can still parse its connection
// profiles. nmcli exits non-zero when a keyfile is structurally broken.
func (s *linuxSurface) LintPreferenceStore(ctx context.Context) error {
	output, err := s.runner.Run(ctx, "nmcli", "-t", "-f", "NAME,UUID", "connection", "show")
	if err != nil {
		return types.NewSurfaceError(types.KindActionFailed, "lint_preference_store",
			fmt.Errorf("nmcli connection show failed: %s", firstLine(output)))
	}
	return nil
}

func (s *linuxSurface) FlushDNSCache(ctx context.Context) error {
	output, err := s.runner.Run(ctx, "resolvectl", "flush-caches")
	return classifyActionError("flush_dns_cache", output, err)
}

func (s *linuxSurface) RestartResolverService(ctx context.Context) error {
	output, err := s.runner.Run(ctx, "systemctl", "restart", "systemd-resolved")
	return classifyActionError("restart_resolver_service", output, err)
}

func (s *linuxSurface) SetDNSServers(ctx context.Context, servers []string) error {
	output, err := s.runner.Run(ctx, "nmcli", "device", "modify", s.iface,
		"ipv4.dns", strings.Join(servers, " "))
	return classifyActionError("set_dns_servers", output, err)
}

// ResetNetworkLocation reloads NetworkManager and reactivates the WiFi
// device, the closest Linux analogue to a macOS location reset.
func (s *linuxSurface) ResetNetworkLocation(ctx context.Context) error {
	output, err := s.runner.Run(ctx, "nmcli", "general", "reload")
	if err != nil {
		return classifyActionError("reset_network_location", output, err)
	}
	output, err = s.runner.Run(ctx, "nmcli", "device", "reapply", s.iface)
	return classifyActionError("reset_network_location", output, err)
}

func (s *linuxSurface) ToggleInterfacePower(ctx context.Context, on bool) error {
	state := "off"
	if on {
		state = "on"
	}
	output, err := s.runner.Run(ctx, "nmcli", "radio", "wifi", state)
	return classifyActionError("toggle_interface_power", output, err)
}

func (s *linuxSurface) ClearARPEntries(ctx context.Context) error {
	output, err := s.runner.Run(ctx, "ip", "neigh", "flush", "all")
	return classifyActionError("clear_arp_entries", output, err)
}
