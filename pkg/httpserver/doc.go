// Package httpserver wraps net/http.Server with graceful shutdown, signal
// handling, env-driven configuration, and a health check handler for
// liveness/readiness probes.
package httpserver
