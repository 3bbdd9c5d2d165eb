package netctl

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

// scriptRunner returns canned output keyed by the command's first tokens.
type scriptRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   []string
}

func (r *scriptRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	key := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, key)
	for prefix, out := range r.outputs {
		if strings.HasPrefix(key, prefix) {
			return out, r.errs[prefix]
		}
	}
	for prefix, err := range r.errs {
		if strings.HasPrefix(key, prefix) {
			return "", err
		}
	}
	return "", errors.New("unscripted command: " + key)
}

const scutilDNSOutput = `DNS configuration

resolver #1
  nameserver[0] : 192.168.1.1
  if_index : 14 (en0)
  flags    : Request A records

resolver #2
  domain   : local
  options  : mdns

resolver #8
  nameserver[0] : 10.8.0.1
  if_index : 22 (utun3)
  flags    : Scoped query
`

func TestDarwinGetResolverEntries(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"scutil --dns": scutilDNSOutput,
	}}
	s := newDarwinSurface("en0")
	s.runner = runner

	entries, err := s.GetResolverEntries(context.Background())
	if err != nil {
		t.Fatalf("GetResolverEntries() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 resolver entries, got %d", len(entries))
	}

	if entries[0].Interface != "en0" || entries[0].VPNOrigin {
		t.Errorf("entry 1 = %+v, want en0 non-VPN", entries[0])
	}
	if len(entries[0].Nameservers) != 1 || entries[0].Nameservers[0] != "192.168.1.1" {
		t.Errorf("entry 1 nameservers = %v, want [192.168.1.1]", entries[0].Nameservers)
	}
	if !entries[2].VPNOrigin {
		t.Errorf("entry 3 (utun3) should be VPN origin, got %+v", entries[2])
	}
}

func TestDarwinGetLinkStatus(t *testing.T) {
	tests := []struct {
		name           string
		output         string
		wantAssociated bool
		wantSSID       string
	}{
		{
			name:           "associated",
			output:         "Current Wi-Fi Network: HomeNet",
			wantAssociated: true,
			wantSSID:       "HomeNet",
		},
		{
			name:           "not associated",
			output:         "You are not associated with an AirPort network.",
			wantAssociated: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptRunner{outputs: map[string]string{
				"networksetup -getairportnetwork": tt.output,
			}}
			s := newDarwinSurface("en0")
			s.runner = runner

			status, err := s.GetLinkStatus(context.Background())
			if err != nil {
				t.Fatalf("GetLinkStatus() error = %v", err)
			}
			if status.Associated != tt.wantAssociated {
				t.Errorf("Associated = %v, want %v", status.Associated, tt.wantAssociated)
			}
			if status.SSID != tt.wantSSID {
				t.Errorf("SSID = %q, want %q", status.SSID, tt.wantSSID)
			}
		})
	}
}

func TestDarwinGetSignal(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		airportPath: "     agrCtlRSSI: -58\n     agrExtRSSI: 0\n     channel: 44",
	}}
	s := newDarwinSurface("en0")
	s.runner = runner

	rssi, err := s.GetSignal(context.Background())
	if err != nil {
		t.Fatalf("GetSignal() error = %v", err)
	}
	if rssi != -58 {
		t.Errorf("RSSI = %v, want -58", rssi)
	}
}

func TestDarwinGetResolverProcessLoad(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"ps -axo": " 0.3 /usr/sbin/syslogd\n12.7 /usr/sbin/mDNSResponder\n 0.1 /sbin/launchd",
	}}
	s := newDarwinSurface("en0")
	s.runner = runner

	cpu, err := s.GetResolverProcessLoad(context.Background())
	if err != nil {
		t.Fatalf("GetResolverProcessLoad() error = %v", err)
	}
	if cpu != 12.7 {
		t.Errorf("CPU = %v, want 12.7", cpu)
	}
}

func TestParseARPTable(t *testing.T) {
	output := `? (192.168.1.1) at a1:b2:c3:d4:e5:f6 on en0 ifscope [ethernet]
? (192.168.1.77) at (incomplete) on en0 ifscope [ethernet]
? (192.168.1.90) at 11:22:33:44:55:66 on en0 ifscope [ethernet]`

	entries := parseARPTable(output)
	if len(entries) != 3 {
		t.Fatalf("expected 3 ARP entries, got %d", len(entries))
	}

	incomplete := 0
	for _, e := range entries {
		if e.Incomplete {
			incomplete++
		}
	}
	if incomplete != 1 {
		t.Errorf("incomplete count = %d, want 1", incomplete)
	}
	if entries[0].Host != "192.168.1.1" || entries[0].MAC != "a1:b2:c3:d4:e5:f6" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
}

func TestDarwinVPNActive(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"connected", `* (Connected)   ABC-123 VPN (L2TP) "Office VPN"`, true},
		{"disconnected", `* (Disconnected)   ABC-123 VPN (L2TP) "Office VPN"`, false},
		{"no services", "No network configuration available", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptRunner{outputs: map[string]string{
				"scutil --nc list": tt.output,
			}}
			s := newDarwinSurface("en0")
			s.runner = runner

			active, err := s.VPNActive(context.Background())
			if err != nil {
				t.Fatalf("VPNActive() error = %v", err)
			}
			if active != tt.want {
				t.Errorf("VPNActive = %v, want %v", active, tt.want)
			}
		})
	}
}

func TestDarwinMutatingCallsReportTypedErrors(t *testing.T) {
	runner := &scriptRunner{
		outputs: map[string]string{"dscacheutil": "Operation not permitted"},
		errs:    map[string]error{"dscacheutil": errors.New("exit status 1")},
	}
	s := newDarwinSurface("en0")
	s.runner = runner

	err := s.FlushDNSCache(context.Background())
	if err == nil {
		t.Fatal("expected error from failed flush")
	}
	if kind := types.KindOf(err); kind != types.KindActionPermissionDenied {
		t.Errorf("error kind = %v, want %v", kind, types.KindActionPermissionDenied)
	}
}

func TestDarwinSetDNSServers(t *testing.T) {
	runner := &scriptRunner{outputs: map[string]string{
		"networksetup -setdnsservers": "",
	}}
	s := newDarwinSurface("en0")
	s.runner = runner

	if err := s.SetDNSServers(context.Background(), []string{"1.1.1.1", "8.8.8.8"}); err != nil {
		t.Fatalf("SetDNSServers() error = %v", err)
	}
	want := "networksetup -setdnsservers Wi-Fi 1.1.1.1 8.8.8.8"
	if len(runner.calls) != 1 || runner.calls[0] != want {
		t.Errorf("calls = %v, want [%s]", runner.calls, want)
	}
}

func TestIsVPNInterface(t *testing.T) {
	tests := []struct {
		iface string
		want  bool
	}{
		{"utun3", true},
		{"tun0", true},
		{"wg0", true},
		{"ppp0", true},
		{"en0", false},
		{"wlan0", false},
	}
	for _, tt := range tests {
		if got := isVPNInterface(tt.iface); got != tt.want {
			t.Errorf("isVPNInterface(%q) = %v, want %v", tt.iface, got, tt.want)
		}
	}
}

func TestFakeSurfaceTimeout(t *testing.T) {
	f := NewHealthyFake()
	f.ProbeDelay = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	if _, err := f.GetSignal(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
