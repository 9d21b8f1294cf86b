package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the widget host
type Metrics struct {
	// Runtime metrics
	WidgetsActive    prometheus.Gauge
	WidgetsActivated prometheus.Counter
	ViewsActive      prometheus.Gauge

	// Permission metrics
	PermissionDecisions *prometheus.CounterVec
	PermissionChecks    *prometheus.CounterVec

	// Cache metrics
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	FetchErrors  prometheus.Counter
	CacheWrites  prometheus.Counter
	CacheDeletes prometheus.Counter

	// Telemetry metrics
	SamplesTaken   prometheus.Counter
	SamplesDropped prometheus.Counter

	startTime time.Time
}

// NewMetrics creates a metrics collector registered on reg. Each host
// owns its own registry, so several hosts can live in one process; a
// nil reg gets a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		WidgetsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "host_widgets_active",
				Help: "Number of live widget instances",
			},
		),
		WidgetsActivated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "host_widgets_activated_total",
				Help: "Total number of widget activations",
			},
		),
		ViewsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "host_secondary_views_active",
				Help: "Number of live secondary views",
			},
		),

		PermissionDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "host_permission_decisions_total",
				Help: "Persisted permission decisions by scope and outcome",
			},
			[]string{"scope", "state"},
		),
		PermissionChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "host_permission_checks_total",
				Help: "Permission checks by resulting state",
			},
			[]string{"state"},
		),

		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "host_cache_hits_total",
				Help: "Cache-through reads served from the cache",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "host_cache_misses_total",
				Help: "Cache-through reads that missed the cache",
			},
		),
		FetchErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "host_cache_fetch_errors_total",
				Help: "Cache-through fetches that failed",
			},
		),
		CacheWrites: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "host_cache_writes_total",
				Help: "Cache records written after successful fetches",
			},
		),
		CacheDeletes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "host_cache_deletes_total",
				Help: "Cache records deleted by reset or force refresh",
			},
		),

		SamplesTaken: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "host_telemetry_samples_total",
				Help: "Telemetry samples collected",
			},
		),
		SamplesDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "host_telemetry_samples_dropped_total",
				Help: "Ticks skipped because the previous sample was still running",
			},
		),
	}
}

// Uptime returns time since the metrics collector was created
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}
