// Package cmd defines the CLI commands of the stplive executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stplive/stp-live/internal/config"
)

// newRootCmd creates the root command and attaches subcommands.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "stplive",
		Short: "Live cablecar, race calendar, weather, and video feeds for Sljeme.",
		Long: `stplive scrapes third-party pages (cablecar operating hours and notices,
MTB race calendars, the DHMZ station table, a YouTube channel feed) and serves
them as stable JSON. Failures degrade to structured error payloads.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); env STPLIVE_* overrides")

	loadConfig := func() (config.Config, error) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	cmd.AddCommand(newServeCmd(loadConfig))
	cmd.AddCommand(newScrapeCmd(loadConfig))
	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
