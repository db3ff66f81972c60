// Package middleware provides HTTP middleware for the exporter's server.
//
// The chain, outermost first:
//
//	RequestIDMiddleware -> RecoveryMiddleware -> tracing.HTTPMiddleware -> LoggingMiddleware -> mux
//
// Request IDs are stored with logging.WithRequestID, so every log line
// written with a request context carries request_id.
package middleware
