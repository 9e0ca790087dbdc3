package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/netclock/internal/display"
)

var (
	tokenRole    string
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a display bridge token",
	Long: `Issue an HS256 bearer token signed with display.token_secret.

Viewers receive QR and status frames. Controllers may also send commands.`,
	Example: `  netclock display --token "$(netclock token --role viewer)"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenTTL < 0 {
			return fmt.Errorf("--ttl must not be negative, got %s", tokenTTL)
		}
		if cfg.Display.TokenSecret == "" {
			return errors.New("display.token_secret is not set; the bridge accepts every client")
		}
		token, err := display.IssueToken(cfg.Display.TokenSecret, tokenSubject, tokenRole, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", display.RoleController, "Token role (viewer, controller)")
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "cli", "Token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime (0 never expires)")
}
