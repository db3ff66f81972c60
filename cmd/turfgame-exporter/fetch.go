package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"turfgame/exporter/pkg/cli"
	"turfgame/exporter/pkg/pipeline"
)

var fetchFlags struct {
	output string
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one fetch cycle",
	Long: `Run a single fetch cycle against the configured cache and print the result.

An upstream failure is reported in the result but does not fail the
command, matching the behavior of scheduled cycles.

Examples:
  # Refresh the cache once
  turfgame-exporter fetch

  # Machine-readable result
  turfgame-exporter fetch --output json`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchFlags.output, "output", "o", "text", "output format: text, json")
}

// cycleSummary is the printable form of a pipeline.CycleResult.
type cycleSummary struct {
	CycleID    string   `json:"cycle_id"`
	Outcome    string   `json:"outcome"`
	DurationMS int64    `json:"duration_ms"`
	Requested  int      `json:"requested"`
	Received   int      `json:"received"`
	Written    int      `json:"written"`
	Rejected   int      `json:"rejected"`
	Ignored    int      `json:"ignored"`
	WriteFail  int      `json:"write_failed"`
	Missing    []string `json:"missing,omitempty"`
	Error      string   `json:"error,omitempty"`
}

func newCycleSummary(r pipeline.CycleResult) cycleSummary {
	s := cycleSummary{
		CycleID:    r.ID,
		Outcome:    r.Outcome(),
		DurationMS: r.Duration.Milliseconds(),
		Requested:  r.Requested,
		Received:   r.Received,
		Written:    r.Written,
		Rejected:   r.Rejected,
		Ignored:    r.Ignored,
		WriteFail:  r.WriteFailed,
		Missing:    r.Missing,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}

func (s cycleSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cycle:     %s\n", s.CycleID)
	fmt.Fprintf(&b, "Outcome:   %s\n", s.Outcome)
	fmt.Fprintf(&b, "Duration:  %s\n", time.Duration(s.DurationMS)*time.Millisecond)
	fmt.Fprintf(&b, "Users:     %d requested, %d received\n", s.Requested, s.Received)
	fmt.Fprintf(&b, "Snapshots: %d written, %d rejected, %d ignored, %d write failures", s.Written, s.Rejected, s.Ignored, s.WriteFail)
	if len(s.Missing) > 0 {
		fmt.Fprintf(&b, "\nMissing:   %s", strings.Join(s.Missing, ", "))
	}
	if s.Error != "" {
		fmt.Fprintf(&b, "\nError:     %s", s.Error)
	}
	return b.String()
}

func runFetch(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(fetchFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Logs go to stderr so stdout carries only the result.
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	comps, err := buildComponents(cfg, logger.Slog())
	if err != nil {
		return cli.NewCommandError("fetch", err)
	}
	defer comps.Close()

	result := comps.fetcher.RunCycle(cmd.Context())
	return writeResult(cmd.OutOrStdout(), format, newCycleSummary(result))
}

func writeResult(w io.Writer, format cli.OutputFormat, v any) error {
	return cli.NewFormatter(format).FormatTo(w, v)
}
