package config

import (
	"strings"
	"time"
)

// Default values for configuration fields.
const (
	// Turf defaults
	DefaultTurfAPIURL  = "https://api.turfgame.com/v4/users"
	DefaultTurfTimeout = 2 * time.Second

	// Fetch defaults
	DefaultFetchInterval = 300 * time.Second

	// Cache defaults
	DefaultCacheKeyPrefix = "turfgame_user"

	// Server defaults
	DefaultListenAddress   = ":5000"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel        = "info"
	DefaultLoggingFormat       = "json"
	DefaultMetricsPath         = "/exporter/metrics"
	DefaultMetricsNamespace    = "turfgame_exporter"
	DefaultTracingSampleRatio  = 1.0
	DefaultTracingServiceName  = "turfgame-exporter"
	DefaultHealthLivenessPath  = "/health"
	DefaultHealthReadinessPath = "/ready"
	DefaultHealthVersionPath   = "/version"
	DefaultHealthCheckTimeout  = 2 * time.Second

	// staleIntervals is how many fetch intervals may pass without a
	// successful cycle before readiness reports degraded.
	staleIntervals = 3
)

// DefaultCycleDurationBuckets are the fetch cycle histogram buckets in
// seconds. The upstream timeout defaults to 2s.
var DefaultCycleDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Turf defaults
	if cfg.Turf.APIURL == "" {
		cfg.Turf.APIURL = DefaultTurfAPIURL
	}
	if cfg.Turf.Timeout == 0 {
		cfg.Turf.Timeout = DefaultTurfTimeout
	}
	for i, user := range cfg.Turf.Users {
		cfg.Turf.Users[i] = strings.TrimSpace(user)
	}

	// Fetch defaults
	if cfg.Fetch.Interval == 0 && cfg.Fetch.Schedule == "" {
		cfg.Fetch.Interval = DefaultFetchInterval
	}

	// Cache defaults
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	applyTelemetryDefaults(cfg)
}

// applyTelemetryDefaults applies defaults to the telemetry section.
func applyTelemetryDefaults(cfg *Config) {
	t := &cfg.Telemetry

	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLoggingLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLoggingFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.CycleDurationBuckets) == 0 {
		t.Metrics.CycleDurationBuckets = append([]float64(nil), DefaultCycleDurationBuckets...)
	}

	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultHealthVersionPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
	if t.Health.MaxFetchAge == 0 {
		interval := cfg.Fetch.Interval
		if interval <= 0 {
			interval = DefaultFetchInterval
		}
		t.Health.MaxFetchAge = staleIntervals * interval
	}
}
