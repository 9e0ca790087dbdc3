package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/netclock/internal/config"
	"github.com/muurk/netclock/internal/ui"
)

var (
	configForce          bool
	configGenerateSecret bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgPathInUse); err == nil && !configForce {
			return fmt.Errorf("%s already exists; use --force to overwrite", cfgPathInUse)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		c := config.Default()
		if configGenerateSecret {
			secret, err := randomSecret()
			if err != nil {
				return err
			}
			c.Display.TokenSecret = secret
		}
		if err := c.Save(cfgPathInUse); err != nil {
			ui.PrintFailure(cmd.OutOrStdout(), "Config not written", err)
			return err
		}

		auth := "open"
		if c.Display.TokenSecret != "" {
			auth = "token required"
		}
		ui.PrintSuccess(cmd.OutOrStdout(), "Configuration written",
			ui.Detail{Key: "Path", Value: cfgPathInUse},
			ui.Detail{Key: "Bridge", Value: c.Display.Listen},
			ui.Detail{Key: "Auth", Value: auth},
		)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", cfgPathInUse, data)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration and credential file paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := config.GetCredentialsPath()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "config:      %s\ncredentials: %s\n", cfgPathInUse, creds)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
	configInitCmd.Flags().BoolVar(&configGenerateSecret, "generate-secret", false, "Require tokens on the display bridge, with a random secret")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
