/*
Package server provides the exporter's HTTP server.

# Routes

	GET /metrics            Turf user metrics, rendered from the cache
	GET /ping               "success"
	GET /health             liveness
	GET /ready              readiness (503 when degraded)
	GET /version            build information
	GET /exporter/metrics   the exporter's own metrics

The health and self-metrics paths come from telemetry configuration;
/metrics and /ping are fixed for compatibility with the previous exporter.

# Middleware Chain

Outermost first:

	RequestID -> Recovery -> tracing.HTTPMiddleware -> Logging -> mux

The request ID is assigned first so that panics and access logs carry it.

# Lifecycle

Start listens and blocks until the context is cancelled, then shuts down
gracefully within server.shutdown_timeout. Signal handling belongs to the
caller (see cli.SetupSignalHandler).

	srv, err := server.New(cfg, server.Routes{
	    Metrics:     renderer.Handler(),
	    SelfMetrics: collector.Handler(),
	    Health:      checker.CreateHandlers(version, commit, buildTime),
	}, logger)
	if err != nil {
	    return err
	}
	return srv.Start(ctx)
*/
package server
