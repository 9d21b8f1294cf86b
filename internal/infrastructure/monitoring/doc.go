// Package monitoring provides Prometheus metrics for the widget host.
//
// Metrics cover the runtime live table, permission decisions, the
// cache-through accessor, and the telemetry watchers. Collectors register
// on a caller-supplied registry, never the global default, so several
// hosts can coexist in one process. Managers accept the collector through
// a WithMetrics builder and treat it as optional; a nil collector
// disables instrumentation.
package monitoring
