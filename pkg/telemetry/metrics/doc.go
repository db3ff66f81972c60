// Package metrics provides the Turf exporter's own Prometheus metrics.
//
// # Overview
//
// The Turf user metrics served on /metrics are rendered straight from the
// cache by pkg/exposition. This package covers the exporter itself: how
// fetch cycles go and what rendering costs. It is served on a separate path
// (default /exporter/metrics) from its own client_golang registry.
//
// # Metrics Categories
//
//   - Fetch Metrics: cycle count by outcome, cycle duration, entities
//     written, rejected and failed, last success timestamp
//   - Render Metrics: cache reads by result, render duration, excluded users
//   - Runtime: Go and process collectors
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// Both components accept the collector as their recorder.
//	fetcher, _ := pipeline.NewFetcher(pipeline.Options{Metrics: collector, ...})
//	renderer, _ := exposition.New(exposition.Options{Metrics: collector, ...})
//
//	mux.Handle("/exporter/metrics", collector.Handler())
//
// # Readiness
//
// LastSuccessfulFetch is kept even when self-metrics are disabled; the
// readiness check uses it to report stale data.
//
// # Example Output
//
//	# HELP turfgame_exporter_fetch_cycles_total Total number of fetch cycles by outcome
//	# TYPE turfgame_exporter_fetch_cycles_total counter
//	turfgame_exporter_fetch_cycles_total{outcome="success"} 12
//	turfgame_exporter_fetch_cycles_total{outcome="transport_error"} 1
package metrics
