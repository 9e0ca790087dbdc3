package main

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/netclock/internal/bus"
	"github.com/muurk/netclock/internal/display"
	"github.com/muurk/netclock/internal/ui"
)

// How long send waits for the bridge to refuse a command.
var sendWait time.Duration

var sendCmd = &cobra.Command{
	Use:   "send <init_wifi|sync_time>",
	Short: "Send a command to the network manager",
	Long: `Send a command through a display bridge.

  init_wifi   forget the current attempt and provision WiFi again (long press)
  sync_time   sync the clock now

Commands are fire-and-forget: the bridge only answers when it refuses one,
because the token is read-only or the command queue is full.`,
	Args: cobra.ExactArgs(1),
	ValidArgs: []string{
		bus.CommandInitWifi.String(),
		bus.CommandSyncTime.String(),
	},
	RunE: runSend,
}

func init() {
	addBridgeFlags(sendCmd)
	sendCmd.Flags().DurationVar(&sendWait, "wait", 500*time.Millisecond, "How long to wait for a refusal")
}

func runSend(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	command, err := bus.ParseCommand(args[0])
	if err != nil {
		return err
	}

	url, err := resolveBridge(cmd.Context(), false)
	if err != nil {
		return err
	}

	client, err := display.Dial(cmd.Context(), url, bridgeToken)
	if err != nil {
		tips := []string{"Is `netclock run` running?", "Check --url or the mDNS instance name"}
		if errors.Is(err, display.ErrUnauthorized) {
			tips = []string{"Pass a token from `netclock token --role controller`"}
		}
		ui.PrintFailure(out, "Could not reach the bridge", err, tips...)
		return err
	}
	defer client.Close()

	if err := client.SendCommand(command); err != nil {
		ui.PrintFailure(out, "Send failed", err)
		return err
	}

	if err := awaitRefusal(client, sendWait); err != nil {
		ui.PrintFailure(out, "Command refused", err)
		return err
	}

	ui.PrintSuccess(out, "Command sent",
		ui.Detail{Key: "Command", Value: command.String()},
		ui.Detail{Key: "Bridge", Value: url},
	)
	return nil
}

// awaitRefusal reads frames until wait elapses. An error frame is returned
// as an error; anything else is ignored.
func awaitRefusal(client *display.Client, wait time.Duration) error {
	_ = client.SetReadDeadline(time.Now().Add(wait))
	for {
		f, err := client.Next()
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return nil
			}
			return fmt.Errorf("bridge closed the connection: %w", err)
		}
		if f.Type == display.FrameError {
			return errors.New(f.Error)
		}
	}
}
