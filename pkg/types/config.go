// Package types defines configuration types for WiFi Doctor.
package types

import (
	"fmt"
	"os"
	"time"
)

// Package-level defaults. The diagnostic thresholds are heuristics inherited
// from field experience, not hard invariants; all of them are configurable.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stdout"

	DefaultSignalFloorDBm     = -70.0
	DefaultResolverCPUPercent = 10.0
	DefaultMaxRounds          = 2

	DefaultPingTarget    = "1.1.1.1"
	DefaultPingCount     = 3
	DefaultPingTimeout   = "5s"
	DefaultResolveHost   = "www.google.com"
	DefaultHTTPTarget    = "http://www.google.com"
	DefaultHTTPSTarget   = "https://www.google.com"
	DefaultHTTPTimeout   = "10s"
	DefaultProbeTimeout  = "10s"
	DefaultActionTimeout = "30s"

	DefaultWatchInterval      = "5m"
	DefaultMetricsBindAddress = "127.0.0.1:9144"
	DefaultMetricsPath        = "/metrics"

	DefaultHistoryKeep = 50

	// MaxRoundsCeiling bounds the configurable round budget so a bad config
	// cannot cause a remediation storm.
	MaxRoundsCeiling = 10
)

// DefaultDNSServers are the resolvers installed by the set_dns_servers
// action (Cloudflare primary, Google secondary).
var DefaultDNSServers = []string{"1.1.1.1", "8.8.8.8", "8.8.4.4"}

// Valid log levels and formats for validation.
var (
	validLogLevels = map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	validLogFormats = map[string]bool{
		"json": true,
		"text": true,
	}

	validLogOutputs = map[string]bool{
		"stdout": true,
		"stderr": true,
		"file":   true,
	}
)

// Config is the top-level WiFi Doctor configuration.
type Config struct {
	Settings   GlobalSettings `json:"settings" yaml:"settings"`
	Thresholds Thresholds     `json:"thresholds" yaml:"thresholds"`
	Targets    Targets        `json:"targets" yaml:"targets"`
	Watch      WatchSettings  `json:"watch" yaml:"watch"`
	History    HistoryConfig  `json:"history" yaml:"history"`
}

// GlobalSettings contains process-wide settings.
type GlobalSettings struct {
	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `json:"logLevel" yaml:"logLevel"`

	// LogFormat is json or text.
	LogFormat string `json:"logFormat" yaml:"logFormat"`

	// LogOutput is stdout, stderr, or file.
	LogOutput string `json:"logOutput" yaml:"logOutput"`

	// LogFile is the log file path when LogOutput is "file".
	LogFile string `json:"logFile,omitempty" yaml:"logFile,omitempty"`

	// Interface overrides WiFi interface auto-detection (en0, wlan0, ...).
	Interface string `json:"interface,omitempty" yaml:"interface,omitempty"`
}

// Thresholds holds the classification thresholds.
type Thresholds struct {
	// SignalFloorDBm is the RSSI below which the signal is Degraded.
	SignalFloorDBm float64 `json:"signalFloorDBm" yaml:"signalFloorDBm"`

	// ResolverCPUPercent is the resolver CPU utilization above which
	// resolver load is Degraded.
	ResolverCPUPercent float64 `json:"resolverCPUPercent" yaml:"resolverCPUPercent"`

	// MaxRounds bounds the convergence loop.
	MaxRounds int `json:"maxRounds" yaml:"maxRounds"`
}

// Targets holds the probe targets and timeouts.
type Targets struct {
	// PingTarget is a fixed, reachable public IP.
	PingTarget string `json:"pingTarget" yaml:"pingTarget"`

	// PingCount is the number of echo requests per round.
	PingCount int `json:"pingCount" yaml:"pingCount"`

	// ResolveHost is the well-known hostname used by the DNS probe.
	ResolveHost string `json:"resolveHost" yaml:"resolveHost"`

	// HTTPTarget and HTTPSTarget are the well-known origins used by the
	// reachability probes.
	HTTPTarget  string `json:"httpTarget" yaml:"httpTarget"`
	HTTPSTarget string `json:"httpsTarget" yaml:"httpsTarget"`

	// DNSServers are installed by the set_dns_servers action.
	DNSServers []string `json:"dnsServers" yaml:"dnsServers"`

	// Timeout strings parsed during ApplyDefaults.
	PingTimeoutString   string `json:"pingTimeout" yaml:"pingTimeout"`
	HTTPTimeoutString   string `json:"httpTimeout" yaml:"httpTimeout"`
	ProbeTimeoutString  string `json:"probeTimeout" yaml:"probeTimeout"`
	ActionTimeoutString string `json:"actionTimeout" yaml:"actionTimeout"`

	// Parsed durations (populated from the strings above).
	PingTimeout   time.Duration `json:"-" yaml:"-"`
	HTTPTimeout   time.Duration `json:"-" yaml:"-"`
	ProbeTimeout  time.Duration `json:"-" yaml:"-"`
	ActionTimeout time.Duration `json:"-" yaml:"-"`
}

// WatchSettings configures the continuous monitoring mode.
type WatchSettings struct {
	// IntervalString is how often watch mode reruns the diagnosis.
	IntervalString string `json:"interval" yaml:"interval"`

	// Interval is the parsed form of IntervalString.
	Interval time.Duration `json:"-" yaml:"-"`

	// MetricsBindAddress is where watch mode serves Prometheus metrics.
	MetricsBindAddress string `json:"metricsBindAddress" yaml:"metricsBindAddress"`

	// MetricsPath is the metrics endpoint path.
	MetricsPath string `json:"metricsPath" yaml:"metricsPath"`
}

// HistoryConfig configures the local session history store.
type HistoryConfig struct {
	// Enabled toggles session persistence.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the sqlite database path. Defaults to
	// $HOME/.wifi-doctor/history.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	// Keep is how many sessions to retain.
	Keep int `json:"keep" yaml:"keep"`
}

// ApplyDefaults fills unset fields and parses duration strings.
func (c *Config) ApplyDefaults() error {
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = DefaultLogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = DefaultLogFormat
	}
	if c.Settings.LogOutput == "" {
		c.Settings.LogOutput = DefaultLogOutput
	}

	if c.Thresholds.SignalFloorDBm == 0 {
		c.Thresholds.SignalFloorDBm = DefaultSignalFloorDBm
	}
	if c.Thresholds.ResolverCPUPercent == 0 {
		c.Thresholds.ResolverCPUPercent = DefaultResolverCPUPercent
	}
	if c.Thresholds.MaxRounds == 0 {
		c.Thresholds.MaxRounds = DefaultMaxRounds
	}

	if c.Targets.PingTarget == "" {
		c.Targets.PingTarget = DefaultPingTarget
	}
	if c.Targets.PingCount == 0 {
		c.Targets.PingCount = DefaultPingCount
	}
	if c.Targets.ResolveHost == "" {
		c.Targets.ResolveHost = DefaultResolveHost
	}
	if c.Targets.HTTPTarget == "" {
		c.Targets.HTTPTarget = DefaultHTTPTarget
	}
	if c.Targets.HTTPSTarget == "" {
		c.Targets.HTTPSTarget = DefaultHTTPSTarget
	}
	if len(c.Targets.DNSServers) == 0 {
		c.Targets.DNSServers = append([]string(nil), DefaultDNSServers...)
	}
	if c.Targets.PingTimeoutString == "" {
		c.Targets.PingTimeoutString = DefaultPingTimeout
	}
	if c.Targets.HTTPTimeoutString == "" {
		c.Targets.HTTPTimeoutString = DefaultHTTPTimeout
	}
	if c.Targets.ProbeTimeoutString == "" {
		c.Targets.ProbeTimeoutString = DefaultProbeTimeout
	}
	if c.Targets.ActionTimeoutString == "" {
		c.Targets.ActionTimeoutString = DefaultActionTimeout
	}

	var err error
	if c.Targets.PingTimeout, err = time.ParseDuration(c.Targets.PingTimeoutString); err != nil {
		return fmt.Errorf("invalid pingTimeout %q: %w", c.Targets.PingTimeoutString, err)
	}
	if c.Targets.HTTPTimeout, err = time.ParseDuration(c.Targets.HTTPTimeoutString); err != nil {
		return fmt.Errorf("invalid httpTimeout %q: %w", c.Targets.HTTPTimeoutString, err)
	}
	if c.Targets.ProbeTimeout, err = time.ParseDuration(c.Targets.ProbeTimeoutString); err != nil {
		return fmt.Errorf("invalid probeTimeout %q: %w", c.Targets.ProbeTimeoutString, err)
	}
	if c.Targets.ActionTimeout, err = time.ParseDuration(c.Targets.ActionTimeoutString); err != nil {
		return fmt.Errorf("invalid actionTimeout %q: %w", c.Targets.ActionTimeoutString, err)
	}

	if c.Watch.IntervalString == "" {
		c.Watch.IntervalString = DefaultWatchInterval
	}
	if c.Watch.Interval, err = time.ParseDuration(c.Watch.IntervalString); err != nil {
		return fmt.Errorf("invalid watch interval %q: %w", c.Watch.IntervalString, err)
	}
	if c.Watch.MetricsBindAddress == "" {
		c.Watch.MetricsBindAddress = DefaultMetricsBindAddress
	}
	if c.Watch.MetricsPath == "" {
		c.Watch.MetricsPath = DefaultMetricsPath
	}

	if c.History.Path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			c.History.Path = home + "/.wifi-doctor/history.db"
		}
	}
	if c.History.Keep == 0 {
		c.History.Keep = DefaultHistoryKeep
	}

	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !validLogLevels[c.Settings.LogLevel] {
		return fmt.Errorf("invalid logLevel %q", c.Settings.LogLevel)
	}
	if !validLogFormats[c.Settings.LogFormat] {
		return fmt.Errorf("invalid logFormat %q", c.Settings.LogFormat)
	}
	if !validLogOutputs[c.Settings.LogOutput] {
		return fmt.Errorf("invalid logOutput %q", c.Settings.LogOutput)
	}
	if c.Settings.LogOutput == "file" && c.Settings.LogFile == "" {
		return fmt.Errorf("logFile must be set when logOutput is \"file\"")
	}

	if c.Thresholds.SignalFloorDBm >= 0 {
		return fmt.Errorf("signalFloorDBm must be negative, got %v", c.Thresholds.SignalFloorDBm)
	}
	if c.Thresholds.ResolverCPUPercent <= 0 || c.Thresholds.ResolverCPUPercent > 100 {
		return fmt.Errorf("resolverCPUPercent must be in (0, 100], got %v", c.Thresholds.ResolverCPUPercent)
	}
	if c.Thresholds.MaxRounds < 1 || c.Thresholds.MaxRounds > MaxRoundsCeiling {
		return fmt.Errorf("maxRounds must be in [1, %d], got %d", MaxRoundsCeiling, c.Thresholds.MaxRounds)
	}

	if c.Targets.PingCount < 1 {
		return fmt.Errorf("pingCount must be at least 1, got %d", c.Targets.PingCount)
	}
	for _, d := range []struct {
		name string
		val  time.Duration
	}{
		{"pingTimeout", c.Targets.PingTimeout},
		{"httpTimeout", c.Targets.HTTPTimeout},
		{"probeTimeout", c.Targets.ProbeTimeout},
		{"actionTimeout", c.Targets.ActionTimeout},
	} {
		if d.val <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.name, d.val)
		}
	}
	if len(c.Targets.DNSServers) == 0 {
		return fmt.Errorf("at least one DNS server must be configured")
	}

	if c.Watch.Interval < time.Second {
		return fmt.Errorf("watch interval must be at least 1s, got %v", c.Watch.Interval)
	}
	if c.History.Keep < 1 {
		return fmt.Errorf("history keep must be at least 1, got %d", c.History.Keep)
	}

	return nil
}
