// Package health provides health check endpoints for the Turf exporter.
//
// # Endpoints
//
//   - /health: Liveness probe, the process is running
//   - /ready: Readiness probe, the cache is reachable and data is fresh
//   - /version: Build information
//   - /ping: Plain "success", kept for probes set up against the
//     previous exporter
//
// # Usage
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck("cache", health.CacheCheck(snapshotCache))
//	checker.RegisterCheck("fetch", health.FreshnessCheck(
//	    time.Now(), collector.LastSuccessfulFetch, cfg.Telemetry.Health.MaxFetchAge))
//
//	handlers := checker.CreateHandlers(version, commit, buildTime)
//	mux.HandleFunc("/ready", handlers.ReadinessHandler)
//
// # Readiness
//
// Checks run concurrently, each bounded by the checker timeout. A failed or
// timed out check marks the exporter degraded and /ready answers 503.
// /metrics keeps serving cached values while degraded; readiness only tells
// operators that those values may be stale.
package health
