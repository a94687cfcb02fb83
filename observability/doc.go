// Package observability provides an OpenTelemetry metrics extension for
// signals. The MetricsExtension implements lifecycle hooks to record
// system-wide counters for raised signals, completed dispatches, handler
// failures, and unit-of-work commits and rollbacks.
//
// For per-handler tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
