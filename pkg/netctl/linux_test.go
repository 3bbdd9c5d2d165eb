package netctl

import (
	"context"
	"testing"
)

func TestLinuxGetLinkStatus(t *testing.T) {
	tests := []struct {
		name           string
		nmcliOutput    string
		wantAssociated bool
		wantSSID       string
		wantIface      string
	}{
		{
			name:           "connected via nmcli",
			nmcliOutput:    "wlp3s0:wifi:connected:HomeNet\nlo:loopback:unmanaged:",
			wantAssociated: true,
			wantSSID:       "HomeNet",
			wantIface:      "wlp3s0",
		},
		{
			name:           "disconnected via nmcli",
			nmcliOutput:    "wlp3s0:wifi:disconnected:\nlo:loopback:unmanaged:",
			wantAssociated: false,
			wantIface:      "wlp3s0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptRunner{outputs: map[string]string{
				"nmcli -t -f DEVICE,TYPE,STATE,CONNECTION device": tt.nmcliOutput,
			}}
			s := newLinuxSurface("")
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
			if status.Interface != tt.wantIface {
				t.Errorf("Interface = %q, want %q", status.Interface, tt.wantIface)
			}
		})
	}
}

func TestLinuxGetSignal(t *testing.T) {
	output := `Connected to aa:bb:cc:dd:ee:ff (on wlan0)
	SSID: HomeNet
	freq: 5180
	signal: -63 dBm
	tx bitrate: 433.3 MBit/s`

	runner := &scriptRunner{outputs: map[string]string{
		"iw dev wlan0 link": output,
	}}
	s := newLinuxSurface("wlan0")
	s.runner = runner

	rssi, err := s.GetSignal(context.Background())
	if err != nil {
		t.Fatalf("GetSignal() error = %v", err)
	}
	if rssi != -63 {
		t.Errorf("RSSI = %v, want -63", rssi)
	}
}

func TestLinuxGetARPTable(t *testing.T) {
	output := `192.168.1.1 dev wlan0 lladdr a1:b2:c3:d4:e5:f6 REACHABLE
192.168.1.45 dev wlan0  INCOMPLETE
192.168.1.90 dev wlan0 lladdr 11:22:33:44:55:66 STALE
192.168.1.99 dev wlan0  FAILED`

	runner := &scriptRunner{outputs: map[string]string{
		"ip neigh show": output,
	}}
	s := newLinuxSurface("wlan0")
	s.runner = runner

	entries, err := s.GetARPTable(context.Background())
	if err != nil {
		t.Fatalf("GetARPTable() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	incomplete := 0
	for _, e := range entries {
		if e.Incomplete {
			incomplete++
		}
	}
	if incomplete != 2 {
		t.Errorf("incomplete count = %d, want 2 (INCOMPLETE + FAILED)", incomplete)
	}
}

func TestLinuxGetResolverEntries(t *testing.T) {
	output := `Global
       Protocols: +LLMNR +mDNS
     DNS Servers: 192.168.1.1

Link 3 (wlan0)
    Current Scopes: DNS
       DNS Servers: 192.168.1.1 8.8.8.8

Link 7 (tun0)
    Current Scopes: DNS
       DNS Servers: 10.8.0.1`

	runner := &scriptRunner{outputs: map[string]string{
		"resolvectl status": output,
	}}
	s := newLinuxSurface("wlan0")
	s.runner = runner

	entries, err := s.GetResolverEntries(context.Background())
	if err != nil {
		t.Fatalf("GetResolverEntries() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}

	vpn := 0
	for _, e := range entries {
		if e.VPNOrigin {
			vpn++
		}
	}
	if vpn != 1 {
		t.Errorf("VPN-origin count = %d, want 1", vpn)
	}
}

func TestLinuxVPNActive(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"wifi only", "802-11-wireless:activated", false},
		{"vpn up", "802-11-wireless:activated\nvpn:activated", true},
		{"wireguard up", "802-11-wireless:activated\nwireguard:activated", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptRunner{outputs: map[string]string{
				"nmcli -t -f TYPE,STATE connection show --active": tt.output,
			}}
			s := newLinuxSurface("wlan0")
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
