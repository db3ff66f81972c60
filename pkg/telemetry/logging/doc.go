// Package logging configures the exporter's structured logger.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - JSON or text output
//   - A level that can be changed at runtime (config hot reload)
//   - The level names of the previous exporter (WARNING, CRITICAL)
//   - Request and fetch cycle IDs taken from the context
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	log := logger.Slog().With("component", "pipeline.fetcher")
//	log.Info("fetch cycle completed", "written", 2)
//
//	// Context-aware logging
//	ctx = logging.WithRequestID(ctx, "req-123")
//	log.InfoContext(ctx, "scrape served") // includes request_id
//
//	// Later, after the config file changed
//	_ = logger.SetLevel("debug")
package logging
