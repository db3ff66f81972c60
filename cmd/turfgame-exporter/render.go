package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"turfgame/exporter/pkg/cli"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the exposition document",
	Long: `Render the Turf user metrics from the cache and print them exactly as
/metrics would serve them. The Turf API is not called.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	comps, err := buildComponents(cfg, logger.Slog())
	if err != nil {
		return cli.NewCommandError("render", err)
	}
	defer comps.Close()

	body := comps.renderer.Render(cmd.Context())
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(body)); err != nil {
		return cli.NewCommandError("render", err)
	}
	return nil
}
