package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/prometheus/common/model"
	"github.com/robfig/cron/v3"

	"turfgame/exporter/pkg/cache"
	"turfgame/exporter/pkg/telemetry/logging"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "turf.users").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	if errs := collectErrors(cfg); len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func collectErrors(cfg *Config) []FieldError {
	var errs []FieldError

	errs = append(errs, validateTurf(&cfg.Turf)...)
	errs = append(errs, validateFetch(&cfg.Fetch)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	return errs
}

// validateTurf validates the upstream API section.
func validateTurf(cfg *TurfConfig) []FieldError {
	var errs []FieldError

	if len(cfg.Users) == 0 {
		errs = append(errs, FieldError{
			Field:   "turf.users",
			Message: "at least one user is required (set TURF_USERS)",
		})
	}
	seen := make(map[string]string, len(cfg.Users))
	for i, user := range cfg.Users {
		if strings.TrimSpace(user) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("turf.users[%d]", i),
				Message: "user name cannot be empty",
			})
			continue
		}
		if strings.TrimSpace(user) != user {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("turf.users[%d]", i),
				Message: fmt.Sprintf("user %q has leading or trailing whitespace", user),
			})
			continue
		}
		key := strings.ToLower(user)
		if first, dup := seen[key]; dup {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("turf.users[%d]", i),
				Message: fmt.Sprintf("user %q duplicates %q", user, first),
			})
			continue
		}
		seen[key] = user
	}

	if cfg.APIURL == "" {
		errs = append(errs, FieldError{
			Field:   "turf.api_url",
			Message: "api url is required",
		})
	} else if u, err := url.Parse(cfg.APIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "turf.api_url",
			Message: fmt.Sprintf("invalid api url %q: must be an absolute http(s) url", cfg.APIURL),
		})
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "turf.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

// validateFetch validates the fetch schedule.
func validateFetch(cfg *FetchConfig) []FieldError {
	var errs []FieldError

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "fetch.schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Schedule, err),
			})
		}
	} else if cfg.Interval <= 0 {
		errs = append(errs, FieldError{
			Field:   "fetch.interval",
			Message: "interval must be positive when no schedule is set",
		})
	}

	return errs
}

// validateCache validates the cache section.
func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.URL == "" {
		errs = append(errs, FieldError{
			Field:   "cache.url",
			Message: "cache url is required (set REDIS_URL or TURFGAME_CACHE_URL)",
		})
	} else if err := cache.CheckURL(cfg.URL); err != nil {
		errs = append(errs, FieldError{
			Field:   "cache.url",
			Message: err.Error(),
		})
	}

	// The prefix names cache keys and also starts every exposed metric name.
	if cfg.KeyPrefix != "" && !model.LegacyValidation.IsValidMetricName(cfg.KeyPrefix) {
		errs = append(errs, FieldError{
			Field:   "cache.key_prefix",
			Message: fmt.Sprintf("key prefix %q is not a valid metric name: use letters, digits, '_' or ':' and do not start with a digit", cfg.KeyPrefix),
		})
	}

	return errs
}

// validateServer validates server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.idle_timeout",
			Message: "idle timeout must be positive",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warning', 'error' or 'critical'", cfg.Logging.Level),
		})
	}
	if _, err := logging.ParseFormat(cfg.Logging.Format); err != nil {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.IsEnabled() {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		if cfg.Metrics.Path == "/metrics" {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "/metrics serves the Turf user metrics; choose another path",
			})
		}
	}
	for i := 1; i < len(cfg.Metrics.CycleDurationBuckets); i++ {
		if cfg.Metrics.CycleDurationBuckets[i] <= cfg.Metrics.CycleDurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.cycle_duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	paths := map[string]string{
		"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
		"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
		"telemetry.health.version_path":   cfg.Health.VersionPath,
	}
	for _, field := range []string{"telemetry.health.liveness_path", "telemetry.health.readiness_path", "telemetry.health.version_path"} {
		if p := paths[field]; p == "" || p[0] != '/' {
			errs = append(errs, FieldError{
				Field:   field,
				Message: "path must start with /",
			})
		}
	}
	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.check_timeout",
			Message: "check timeout must be positive",
		})
	}

	return errs
}
