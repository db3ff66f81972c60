package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"turfgame/exporter/pkg/cli"
	"turfgame/exporter/pkg/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "turfgame-exporter",
	Short: "Prometheus exporter for Turf game player statistics",
	Long: `turfgame-exporter polls the Turf users API for a fixed list of players,
caches one snapshot per player, and serves the cached statistics in the
Prometheus text exposition format.

Configuration is read from a YAML file and the environment. Environment
variables take precedence over the file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
