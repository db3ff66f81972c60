package main

import (
	"fmt"
	"io"
	"log/slog"

	"turfgame/exporter/pkg/cache"
	"turfgame/exporter/pkg/cli"
	"turfgame/exporter/pkg/config"
	"turfgame/exporter/pkg/exposition"
	"turfgame/exporter/pkg/pipeline"
	"turfgame/exporter/pkg/schema"
	"turfgame/exporter/pkg/telemetry/logging"
	"turfgame/exporter/pkg/telemetry/metrics"
	"turfgame/exporter/pkg/turf"
)

// loadConfig reads the config file and environment, applies command line
// overrides and stores the result as the current configuration.
func loadConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	loaded := *config.GetConfig()
	cfg := &loaded

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	for _, override := range overrides {
		override(cfg)
	}
	if len(overrides) > 0 {
		if err := config.Validate(cfg); err != nil {
			return nil, cli.NewConfigError(cfgFile, err)
		}
	}

	config.SetConfig(cfg)
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*logging.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Writer:    w,
	})
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return logger, nil
}

// components is the fetch and render pipeline shared by every command.
type components struct {
	cache     *cache.Cache
	collector *metrics.Collector
	fetcher   *pipeline.Fetcher
	renderer  *exposition.Renderer
}

func buildComponents(cfg *config.Config, logger *slog.Logger) (*components, error) {
	backend, err := cache.Open(cfg.Cache.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	logger.Debug("cache opened", "url", logging.RedactURL(cfg.Cache.URL))

	snapshots := cache.New(backend, cfg.Cache.KeyPrefix)
	registry := schema.Default()
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	ua := cfg.Turf.UserAgent
	if ua == "" {
		ua = userAgent()
	}
	client, err := turf.NewClient(turf.Config{
		URL:       cfg.Turf.APIURL,
		Timeout:   cfg.Turf.Timeout,
		UserAgent: ua,
		Logger:    logger,
	})
	if err != nil {
		snapshots.Close()
		return nil, fmt.Errorf("failed to create turf client: %w", err)
	}

	fetcher, err := pipeline.NewFetcher(pipeline.Options{
		Upstream: client,
		Cache:    snapshots,
		Registry: registry,
		Users:    cfg.Turf.Users,
		Logger:   logger,
		Metrics:  collector,
	})
	if err != nil {
		snapshots.Close()
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	renderer, err := exposition.New(exposition.Options{
		Cache:    snapshots,
		Registry: registry,
		Users:    cfg.Turf.Users,
		Prefix:   cfg.Cache.KeyPrefix,
		Logger:   logger,
		Metrics:  collector,
	})
	if err != nil {
		snapshots.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	logger.Debug("pipeline ready",
		"api_url", client.URL(),
		"users", fetcher.Users(),
		"metrics", registry.Len(),
	)

	return &components{
		cache:     snapshots,
		collector: collector,
		fetcher:   fetcher,
		renderer:  renderer,
	}, nil
}

func (c *components) Close() error {
	return c.cache.Close()
}
