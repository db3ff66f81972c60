package config

import "time"

// Config is the root configuration structure for the Turf exporter.
type Config struct {
	// Turf configures the upstream users API and the tracked users.
	Turf TurfConfig `yaml:"turf"`

	// Fetch configures when fetch cycles run.
	Fetch FetchConfig `yaml:"fetch"`

	// Cache configures the snapshot cache backend.
	Cache CacheConfig `yaml:"cache"`

	// Server configures the HTTP server exposing /metrics.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TurfConfig contains configuration for the Turf users API.
type TurfConfig struct {
	// APIURL is the users endpoint.
	// Default: "https://api.turfgame.com/v4/users"
	APIURL string `yaml:"api_url"`

	// Users is the ordered list of tracked usernames. Required.
	// Exposition lists samples in this order.
	Users []string `yaml:"users"`

	// Timeout bounds one upstream request.
	// Default: 2s
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent overrides the User-Agent sent upstream.
	// Default: "turfgame-exporter/<version>"
	UserAgent string `yaml:"user_agent"`
}

// FetchConfig contains configuration for the fetch schedule.
type FetchConfig struct {
	// Interval is the time between fetch cycles.
	// Default: 300s
	Interval time.Duration `yaml:"interval"`

	// Schedule is a cron expression used instead of Interval when set,
	// e.g. "*/5 * * * *".
	Schedule string `yaml:"schedule"`

	// OnStart runs one cycle immediately at startup.
	// Default: true
	OnStart *bool `yaml:"on_start"`
}

// RunOnStart reports whether a cycle runs at startup.
func (f FetchConfig) RunOnStart() bool {
	return f.OnStart == nil || *f.OnStart
}

// CacheConfig contains configuration for the snapshot cache.
type CacheConfig struct {
	// URL selects and addresses the backend:
	// "redis://host:6379/0", "sqlite:///path/cache.db" or "memory://".
	// Required.
	URL string `yaml:"url"`

	// KeyPrefix namespaces cache keys and prefixes exposed metric names.
	// Default: "turfgame_user"
	KeyPrefix string `yaml:"key_prefix"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: ":5000"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains configuration of the exporter's own metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warning", "error", "critical"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains configuration of the exporter's own metrics. These
// are separate from the Turf user metrics served on /metrics.
type MetricsConfig struct {
	// Enabled controls whether the self-metrics endpoint is served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the self-metrics endpoint.
	// Default: "/exporter/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "turfgame_exporter"
	Namespace string `yaml:"namespace"`

	// CycleDurationBuckets defines histogram buckets for fetch cycle
	// duration (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2, 5]
	CycleDurationBuckets []float64 `yaml:"cycle_duration_buckets"`
}

// IsEnabled reports whether self-metrics are served.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the collector connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is the service name in traces.
	// Default: "turfgame-exporter"
	ServiceName string `yaml:"service_name"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`

	// MaxFetchAge marks the exporter degraded when no fetch cycle has
	// succeeded for this long. Zero derives it as three fetch intervals.
	MaxFetchAge time.Duration `yaml:"max_fetch_age"`
}
