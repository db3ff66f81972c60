package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"turfgame/exporter/pkg/cli"
	"turfgame/exporter/pkg/config"
	"turfgame/exporter/pkg/scheduler"
	"turfgame/exporter/pkg/server"
	"turfgame/exporter/pkg/telemetry/health"
	"turfgame/exporter/pkg/telemetry/logging"
	"turfgame/exporter/pkg/telemetry/tracing"
)

var runFlags struct {
	listen   string
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the exporter",
	Long: `Start the fetch scheduler and the HTTP server.

A fetch cycle runs at startup and then on the configured interval or cron
schedule. Each cycle posts one batched query for all tracked users and
writes a snapshot per user to the cache. /metrics renders the cached
snapshots on every scrape and never calls the Turf API.

Endpoints:
  /metrics            Turf user metrics
  /exporter/metrics   exporter self-metrics
  /health, /ready     liveness and readiness probes
  /version, /ping     build information and a plain-text probe

Examples:
  # Start with the default config file
  turfgame-exporter run

  # Configure from the environment only
  TURF_USERS=alice,bob REDIS_URL=redis://localhost:6379/0 turfgame-exporter run

  # Override listen address and log level
  turfgame-exporter run --listen 127.0.0.1:9100 --log-level debug

  # Validate configuration without starting
  turfgame-exporter run --dry-run`,
	RunE: runExporter,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.listen, "listen", "", "override listen address (e.g., :5000)")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug|info|warning|error|critical)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting")
}

func runOverrides(cfg *config.Config) {
	if runFlags.listen != "" {
		cfg.Server.ListenAddress = runFlags.listen
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
}

func runExporter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runOverrides)
	if err != nil {
		return err
	}

	if runFlags.dryRun {
		printSummary(cmd, cfg)
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid (dry-run mode)")
		return nil
	}

	logger, err := newLogger(cfg, os.Stdout)
	if err != nil {
		return err
	}
	log := logger.Slog()
	slog.SetDefault(log)

	log.Info("starting turfgame-exporter",
		"version", Version,
		"commit", GitCommit,
		"users", len(cfg.Turf.Users),
		"cache", logging.RedactURL(cfg.Cache.URL),
	)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	comps, err := buildComponents(cfg, log)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer comps.Close()

	ctx, cancel := cli.SetupSignalHandler(context.Background())
	defer cancel()

	pingCtx, pingCancel := context.WithTimeout(ctx, cfg.Telemetry.Health.CheckTimeout)
	if err := comps.cache.Ping(pingCtx); err != nil {
		// Not fatal: the cache may come up after the exporter.
		log.Warn("cache not reachable at startup", "error", err)
	}
	pingCancel()

	sched, err := scheduler.New(scheduler.Config{
		Schedule:   cfg.Fetch.Schedule,
		Interval:   cfg.Fetch.Interval,
		RunOnStart: cfg.Fetch.RunOnStart(),
		Logger:     log,
	}, func(ctx context.Context) {
		comps.fetcher.RunCycle(ctx)
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err)
	}

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	checker.RegisterCheck("cache", health.CacheCheck(comps.cache))
	checker.RegisterCheck("fetch", health.FreshnessCheck(time.Now(), comps.collector.LastSuccessfulFetch, cfg.Telemetry.Health.MaxFetchAge))

	routes := server.Routes{
		Metrics: comps.renderer.Handler(),
		Health:  checker.CreateHandlers(Version, GitCommit, BuildDate),
	}
	if cfg.Telemetry.Metrics.IsEnabled() {
		routes.SelfMetrics = comps.collector.Handler()
	}

	srv, err := server.New(cfg, routes, log)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	watchConfig(ctx, logger)

	if err := sched.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer sched.Stop()
	if next := sched.NextRun(); next != nil {
		log.Debug("fetch scheduler started", "schedule", sched.Schedule(), "next_run", next)
	}

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	log.Info("turfgame-exporter stopped")
	return nil
}

// watchConfig reloads the config file on change and applies the log level.
// Other changes are logged as needing a restart.
func watchConfig(ctx context.Context, logger *logging.Logger) {
	log := logger.Slog()

	if _, err := os.Stat(cfgFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("config file not watched", "path", cfgFile, "error", err)
		}
		return
	}

	watcher, err := config.NewWatcher(cfgFile, config.DefaultDebounceInterval, log)
	if err != nil {
		log.Warn("config file not watched", "path", cfgFile, "error", err)
		return
	}

	go func() {
		defer watcher.Stop()
		err := watcher.Watch(ctx, func(prev, next *config.Config) {
			if err := logger.SetLevel(next.Telemetry.Logging.Level); err != nil {
				log.Warn("failed to apply log level", "error", err)
			}
			if fields := config.RestartRequired(prev, next); len(fields) > 0 {
				log.Warn("config changes require a restart", "fields", fields)
			}
		})
		if err != nil {
			log.Error("config watcher stopped", "error", err)
		}
	}()
}

func printSummary(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "turfgame-exporter v%s\n", Version)
	fmt.Fprintf(out, "Users:    %d %v\n", len(cfg.Turf.Users), cfg.Turf.Users)
	fmt.Fprintf(out, "API:      %s\n", cfg.Turf.APIURL)
	if cfg.Fetch.Schedule != "" {
		fmt.Fprintf(out, "Schedule: %s\n", cfg.Fetch.Schedule)
	} else {
		fmt.Fprintf(out, "Interval: %s\n", cfg.Fetch.Interval)
	}
	fmt.Fprintf(out, "Cache:    %s\n", logging.RedactURL(cfg.Cache.URL))
	fmt.Fprintf(out, "Listen:   %s\n", cfg.Server.ListenAddress)
}
