package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"turfgame/exporter/pkg/cache"
	"turfgame/exporter/pkg/cli"
	"turfgame/exporter/pkg/scheduler"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the config file and environment, validate every field and print the
effective settings. Nothing is fetched and no connection is opened.

Exits with status 2 when the configuration is invalid.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cache.CheckURL(cfg.Cache.URL); err != nil {
		return cli.NewConfigError(cfgFile, err)
	}
	spec, err := scheduler.Spec(cfg.Fetch.Schedule, cfg.Fetch.Interval)
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	printSummary(cmd, cfg)
	fmt.Fprintf(cmd.OutOrStdout(), "Cron:     %s\n", spec)
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
	return nil
}
