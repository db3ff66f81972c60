/*
Package cli provides helpers shared by the turfgame-exporter commands.

Output Formatting:

One-shot commands print their result as text or JSON:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, summary); err != nil {
		return err
	}

Errors and Exit Codes:

Commands wrap configuration failures in ConfigError and other failures in
CommandError. ExitCode maps them to the process exit status; a bad
configuration exits with 2.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()
*/
package cli
