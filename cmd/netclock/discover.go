package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/netclock/internal/discovery"
)

var discoverTimeout time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "List display bridges on the local network",
	Long: `Browse mDNS for netclock display bridges and print what answers.

Requires multicast on the local network (UDP port 5353).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := discovery.NewScanner()
		scanner.Timeout = discoverTimeout

		displays, err := scanner.ScanForDisplays(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(displays) == 0 {
			fmt.Fprintln(out, "No display bridges found.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "INSTANCE\tURL\tAUTH\tDEVICE\tVERSION")
		for _, d := range displays {
			auth := discovery.AuthNone
			if d.RequiresAuth() {
				auth = discovery.AuthToken
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				d.Instance, d.URL(), auth,
				d.GetMetadata(discovery.TXTDevice), d.GetMetadata(discovery.TXTVersion))
		}
		return w.Flush()
	},
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverTimeout, "timeout", discovery.DefaultScanTimeout, "How long to browse")
}
