// Package config provides configuration management for the Turf exporter.
//
// Configuration comes from an optional YAML file and the process
// environment. The environment names used by the previous exporter keep
// working:
//
//   - TURF_USERS (comma separated) sets turf.users
//   - TURF_API_USERS_URL sets turf.api_url
//   - CHECK_INTERVAL_SEC sets fetch.interval
//   - LOGLEVEL sets telemetry.logging.level
//   - REDIS_URL sets cache.url
//
// Newer settings use TURFGAME_* names, e.g. TURFGAME_CACHE_URL,
// TURFGAME_LISTEN_ADDRESS, TURFGAME_FETCH_SCHEDULE, TURFGAME_TURF_TIMEOUT,
// TURFGAME_LOG_FORMAT, TURFGAME_TRACING_ENABLED and
// TURFGAME_TRACING_ENDPOINT.
//
// # Configuration Precedence
//
//  1. Values from the YAML file
//  2. Environment variable overrides
//  3. Default values for anything still unset (defaults.go)
//  4. Validation (fails fast if invalid)
//
// A missing user list or cache URL fails validation; the exporter must not
// start serving without them.
//
// # Example
//
//	turf:
//	  users: [alice, bob]
//	  timeout: 2s
//	fetch:
//	  interval: 5m
//	cache:
//	  url: redis://localhost:6379/0
//	telemetry:
//	  logging:
//	    level: info
//
// # Hot Reload
//
// Watcher reloads the file after it changes. Only the log level is applied
// to the running process; RestartRequired lists any other changed settings.
package config
