// Package tracing provides OpenTelemetry distributed tracing for the Turf
// exporter.
//
// # Overview
//
// Tracing is off by default. When enabled, New installs an OTLP/gRPC
// exporter behind a batch span processor and registers the provider
// globally. The fetch pipeline, the upstream client and the renderer obtain
// their tracers from otel.Tracer and need no reference to this package.
//
// Spans produced by the exporter:
//
//   - pipeline.fetch_cycle: one fetch cycle, with the cycle id
//   - turf.fetch_users: the upstream POST, child of the cycle
//   - exposition.render: one scrape of /metrics
//
// # Trace Context Propagation
//
// The W3C Trace Context propagator is always installed. The upstream client
// injects traceparent into its requests, and HTTPMiddleware extracts it from
// incoming scrapes.
//
// # Sampling
//
// Sampling is parent based with a trace ID ratio for root spans
// (telemetry.tracing.sample_ratio, default 1.0).
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
package tracing
