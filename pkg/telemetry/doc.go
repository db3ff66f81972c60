// Package telemetry groups the exporter's observability packages.
//
// # Components
//
//   - logging: slog based structured logging with a runtime adjustable level
//     and request and cycle ids taken from the context
//   - metrics: the exporter's own Prometheus metrics, served apart from the
//     Turf user metrics
//   - tracing: OpenTelemetry tracing over OTLP/gRPC, off by default
//   - health: liveness, readiness, version and ping endpoints
//
// Each sub-package is configured from the matching section of
// config.TelemetryConfig:
//
//	telemetry:
//	  logging:
//	    level: info
//	    format: json
//	  metrics:
//	    path: /exporter/metrics
//	  tracing:
//	    enabled: true
//	    endpoint: otel-collector:4317
//	  health:
//	    max_fetch_age: 15m
package telemetry
