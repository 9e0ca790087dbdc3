// Netclock runs the network manager of a WiFi clock and its display tools.
//
// The manager brings the radio up on demand, provisions credentials over
// DPP when none are stored, syncs the clock over SNTP every few hours and
// shuts the radio down again. Displays connect to its websocket bridge to
// show the provisioning QR code, the clock and the network status.
//
// Usage:
//
//	netclock run        # manager with a simulated radio and the display bridge
//	netclock display    # terminal display client
//	netclock send init_wifi
//
// See 'netclock --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/netclock/internal/config"
	"github.com/muurk/netclock/internal/logging"
	"github.com/muurk/netclock/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath string
	logLevel   string
	logFile    string
)

// Loaded by the root PersistentPreRunE.
var (
	cfg          *config.Config
	cfgPathInUse string
)

var rootCmd = &cobra.Command{
	Use:   "netclock",
	Short: "WiFi clock network manager",
	Long: `Network manager for a WiFi clock.

Brings the radio up on demand, provisions WiFi credentials over DPP (QR code)
when none are stored, keeps the clock in sync over SNTP and turns the radio
off between syncs. Displays connect to the manager's websocket bridge.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configure()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/netclock/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file and "+logging.LogLevelEnvVar)
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file, rotated")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(displayCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// configure loads the config file and sets up logging from it, with the
// command line taking precedence.
func configure() error {
	var err error
	if configPath != "" {
		cfgPathInUse = configPath
		cfg, err = config.Load(configPath)
	} else {
		cfg, cfgPathInUse, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}

	opts := logging.Options{Level: cfg.Log.Level, File: cfg.Log.File}
	if logLevel != "" {
		opts.Level = logLevel
	}
	if logFile != "" {
		opts.File = logFile
	}
	if err := logging.InitializeWithOptions(opts); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "netclock %s\n", version.Full())
	},
}
