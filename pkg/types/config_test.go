package types

import (
	"strings"
	"testing"
	"time"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults failed: %v", err)
	}
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig(t)

	if cfg.Settings.LogLevel != "info" {
		t.Errorf("logLevel = %q, want info", cfg.Settings.LogLevel)
	}
	if cfg.Thresholds.SignalFloorDBm != DefaultSignalFloorDBm {
		t.Errorf("signalFloorDBm = %v, want %v", cfg.Thresholds.SignalFloorDBm, DefaultSignalFloorDBm)
	}
	if cfg.Thresholds.MaxRounds != DefaultMaxRounds {
		t.Errorf("maxRounds = %d, want %d", cfg.Thresholds.MaxRounds, DefaultMaxRounds)
	}
	if cfg.Targets.PingTimeout != 5*time.Second {
		t.Errorf("pingTimeout = %v, want 5s", cfg.Targets.PingTimeout)
	}
	if cfg.Targets.ActionTimeout != 30*time.Second {
		t.Errorf("actionTimeout = %v, want 30s", cfg.Targets.ActionTimeout)
	}
	if cfg.Watch.Interval != 5*time.Minute {
		t.Errorf("watch interval = %v, want 5m", cfg.Watch.Interval)
	}
	if len(cfg.Targets.DNSServers) != 3 {
		t.Errorf("dnsServers = %v, want 3 defaults", cfg.Targets.DNSServers)
	}
	if cfg.History.Keep != DefaultHistoryKeep {
		t.Errorf("history keep = %d, want %d", cfg.History.Keep, DefaultHistoryKeep)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Thresholds.SignalFloorDBm = -80
	cfg.Thresholds.MaxRounds = 4
	cfg.Targets.PingTimeoutString = "2s"

	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults failed: %v", err)
	}

	if cfg.Thresholds.SignalFloorDBm != -80 {
		t.Errorf("signalFloorDBm = %v, want -80", cfg.Thresholds.SignalFloorDBm)
	}
	if cfg.Thresholds.MaxRounds != 4 {
		t.Errorf("maxRounds = %d, want 4", cfg.Thresholds.MaxRounds)
	}
	if cfg.Targets.PingTimeout != 2*time.Second {
		t.Errorf("pingTimeout = %v, want 2s", cfg.Targets.PingTimeout)
	}
}

func TestApplyDefaultsRejectsBadDuration(t *testing.T) {
	cfg := &Config{}
	cfg.Targets.ProbeTimeoutString = "not-a-duration"

	err := cfg.ApplyDefaults()
	if err == nil {
		t.Fatal("expected error for invalid probeTimeout")
	}
	if !strings.Contains(err.Error(), "probeTimeout") {
		t.Errorf("error should name the bad field, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "positive signal floor",
			mutate:  func(c *Config) { c.Thresholds.SignalFloorDBm = 50 },
			wantErr: "signalFloorDBm",
		},
		{
			name:    "resolver cpu over 100",
			mutate:  func(c *Config) { c.Thresholds.ResolverCPUPercent = 150 },
			wantErr: "resolverCPUPercent",
		},
		{
			name:    "zero max rounds",
			mutate:  func(c *Config) { c.Thresholds.MaxRounds = 0 },
			wantErr: "maxRounds",
		},
		{
			name:    "max rounds over ceiling",
			mutate:  func(c *Config) { c.Thresholds.MaxRounds = MaxRoundsCeiling + 1 },
			wantErr: "maxRounds",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Settings.LogLevel = "verbose" },
			wantErr: "logLevel",
		},
		{
			name:    "file output without path",
			mutate:  func(c *Config) { c.Settings.LogOutput = "file" },
			wantErr: "logFile",
		},
		{
			name:    "zero ping count",
			mutate:  func(c *Config) { c.Targets.PingCount = 0 },
			wantErr: "pingCount",
		},
		{
			name:    "no dns servers",
			mutate:  func(c *Config) { c.Targets.DNSServers = nil },
			wantErr: "DNS server",
		},
		{
			name:    "sub-second watch interval",
			mutate:  func(c *Config) { c.Watch.Interval = 100 * time.Millisecond },
			wantErr: "watch interval",
		},
		{
			name:    "zero history keep",
			mutate:  func(c *Config) { c.History.Keep = 0 },
			wantErr: "history keep",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestMaxRoundsCeilingBoundsBudget(t *testing.T) {
	cfg := validConfig(t)
	cfg.Thresholds.MaxRounds = MaxRoundsCeiling
	if err := cfg.Validate(); err != nil {
		t.Errorf("MaxRounds at ceiling should validate, got: %v", err)
	}
}
