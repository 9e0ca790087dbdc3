package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/muurk/netclock/internal/discovery"
	"github.com/muurk/netclock/internal/display"
	"github.com/muurk/netclock/internal/ui"
)

// Flags shared by the commands that talk to a bridge
var (
	bridgeURL      string
	bridgeToken    string
	bridgeInstance string
	scanTimeout    time.Duration
)

func addBridgeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&bridgeURL, "url", "", "Bridge websocket URL, e.g. ws://192.168.4.16:8787/ws (default: discover over mDNS)")
	cmd.Flags().StringVar(&bridgeToken, "token", "", "Bearer token for bridges that require one")
	cmd.Flags().StringVar(&bridgeInstance, "instance", "", "Connect to the bridge advertised under this mDNS instance name")
	cmd.Flags().DurationVar(&scanTimeout, "scan-timeout", discovery.DefaultScanTimeout, "How long to browse mDNS")
}

var displayCmd = &cobra.Command{
	Use:   "display",
	Short: "Show the clock, network status and provisioning QR code",
	Long: `Connect to a display bridge and render the clock in the terminal.

While the manager provisions, the DPP bootstrapping URI is shown; scan it
with a DPP configurator (or encode it as a QR code). Press w to ask the
manager to re-provision WiFi and s to sync the time now.

Without --url the bridge is found over mDNS. In a terminal a picker lists
every bridge found; otherwise the first one answering is used.`,
	Example: `  # Pick a bridge on the local network
  netclock display

  # Connect directly
  netclock display --url ws://127.0.0.1:8787/ws --token "$(netclock token)"`,
	RunE: runDisplay,
}

func init() {
	addBridgeFlags(displayCmd)
}

func runDisplay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	url, err := resolveBridge(ctx, true)
	if err != nil {
		return err
	}
	if url == "" {
		return nil // picker closed
	}

	client, err := display.Dial(ctx, url, bridgeToken)
	if err != nil {
		return err
	}
	defer client.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	model := ui.NewClockModel(client, client, loc)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("display failed: %w", err)
	}
	if m, ok := final.(ui.ClockModel); ok && m.Err() != nil {
		return fmt.Errorf("bridge connection lost: %w", m.Err())
	}
	return nil
}

// resolveBridge returns the websocket URL of the bridge to talk to. With
// interactive set and a terminal attached, the user picks from the bridges
// found; an empty URL means the picker was closed without a choice.
func resolveBridge(ctx context.Context, interactive bool) (string, error) {
	if bridgeURL != "" {
		return bridgeURL, nil
	}

	scanner := discovery.NewScanner()
	scanner.Timeout = scanTimeout

	if interactive && bridgeInstance == "" && ui.IsTerminal() {
		final, err := tea.NewProgram(ui.NewPickerModel(scanner.ScanForDisplays)).Run()
		if err != nil {
			return "", fmt.Errorf("bridge picker failed: %w", err)
		}
		picker, ok := final.(ui.PickerModel)
		if !ok || picker.Selected() == nil {
			return "", nil
		}
		return picker.Selected().URL(), nil
	}

	d, err := scanner.WaitForDisplay(ctx, bridgeInstance)
	if errors.Is(err, discovery.ErrNotFound) {
		return "", fmt.Errorf("%w; pass --url to connect directly", err)
	}
	if err != nil {
		return "", err
	}
	return d.URL(), nil
}
