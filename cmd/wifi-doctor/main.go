// WiFi Doctor - host-local WiFi health diagnosis and auto-remediation tool
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/supporttools/wifi-doctor/pkg/logger"
	"github.com/supporttools/wifi-doctor/pkg/netctl"
	"github.com/supporttools/wifi-doctor/pkg/types"
	"github.com/supporttools/wifi-doctor/pkg/util"
)

// Build-time variables set by goreleaser or make
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// errUnhealthy signals a completed session whose outcome was not Resolved.
// It maps to exit code 1 without an error banner.
var errUnhealthy = errors.New("session not resolved")

var (
	configPath   string
	logLevelFlag string
	ifaceFlag    string
)

func main() {
	// A .env next to the binary can supply WIFI_DOCTOR_* overrides used in
	// config files via environment expansion.
	_ = godotenv.Load()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errUnhealthy) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps an Execute error to the process exit code. A session aborted
// because no WiFi network is associated exits 2, so callers can tell it apart
// from a completed but unresolved session, which exits 1.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case types.IsNoLink(err):
		return 2
	default:
		return 1
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wifi-doctor",
		Short: "Diagnose and repair common WiFi problems",
		Long: `wifi-doctor probes the host's WiFi health (association, signal, DNS,
reachability), classifies what it finds, and applies targeted remediations
until the network is healthy or the round budget runs out.

Running with no subcommand performs one diagnostic session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDiagnose,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override log level (debug, info, warn, error, fatal)")
	root.PersistentFlags().StringVar(&ifaceFlag, "interface", "", "Override WiFi interface name")

	addDiagnoseFlags(root)
	root.AddCommand(newDiagnoseCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfigOnly loads configuration and applies flag overrides.
func loadConfigOnly() (*types.Config, error) {
	cfg, err := util.LoadConfigOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.Settings.LogLevel = logLevelFlag
	}
	if ifaceFlag != "" {
		cfg.Settings.Interface = ifaceFlag
	}
	return cfg, nil
}

// loadSetup loads configuration, applies flag overrides, initializes logging,
// and selects the platform control surface.
func loadSetup() (*types.Config, netctl.Surface, error) {
	cfg, err := loadConfigOnly()
	if err != nil {
		return nil, nil, err
	}

	if err := logger.Initialize(cfg.Settings.LogLevel, cfg.Settings.LogFormat,
		cfg.Settings.LogOutput, cfg.Settings.LogFile); err != nil {
		return nil, nil, err
	}

	surface, err := netctl.New(cfg.Settings.Interface)
	if err != nil {
		return nil, nil, err
	}
	return cfg, surface, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wifi-doctor %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		},
	}
}
