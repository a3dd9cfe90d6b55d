// Package metrics provides Prometheus metrics for the ticket sync service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by remote-call and mutation metrics.
const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
	OutcomeInvalid     = "invalid"
	OutcomeNotFound    = "not_found"
	OutcomeError       = "error"
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"
	CacheError = "error"
)

// latencyBuckets suit round trips to a hosted spreadsheet (milliseconds).
var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Remote row store
	remoteCalls   *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	rowsSkipped   prometheus.Counter
	ticketsLoaded prometheus.Gauge

	// Record cache
	cacheLookups *prometheus.CounterVec

	// Mutations
	mutations *prometheus.CounterVec

	// Sessions
	sessionsActive  prometheus.Gauge
	sessionsEvicted prometheus.Counter

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error breakdowns
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ticketsync",
		subsystem:        "tracker",
		histogramBuckets: latencyBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.remoteCalls = auto.NewCounterVec(
		m.counterOpts("remote_calls_total", "Calls to the remote row store by operation and outcome"),
		[]string{"op", "outcome"},
	)
	m.remoteLatency = auto.NewHistogramVec(
		m.histogramOpts("remote_call_latency_milliseconds", "Remote row store round-trip latency in milliseconds", m.histogramBuckets),
		[]string{"op"},
	)
	m.rowsSkipped = auto.NewCounter(
		m.counterOpts("rows_skipped_total", "Rows excluded from reads because required fields were missing"),
	)
	m.ticketsLoaded = auto.NewGauge(
		m.gaugeOpts("tickets_loaded", "Tickets returned by the most recent full read"),
	)

	m.cacheLookups = auto.NewCounterVec(
		m.counterOpts("cache_lookups_total", "Record cache lookups by result (hit, miss, stale, error)"),
		[]string{"result"},
	)

	m.mutations = auto.NewCounterVec(
		m.counterOpts("mutations_total", "Ticket mutations by operation and outcome"),
		[]string{"op", "outcome"},
	)

	m.sessionsActive = auto.NewGauge(
		m.gaugeOpts("sessions_active", "UI sessions currently holding a record cache"),
	)
	m.sessionsEvicted = auto.NewCounter(
		m.counterOpts("sessions_evicted_total", "Sessions dropped for capacity or idleness"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Manager methods.

// RecordRemoteCall counts a remote call and observes its latency.
func (m *Manager) RecordRemoteCall(op, outcome string, latencyMs float64) {
	m.remoteCalls.WithLabelValues(op, outcome).Inc()
	m.remoteLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordRowsSkipped adds n malformed rows.
func (m *Manager) RecordRowsSkipped(n int) {
	if n > 0 {
		m.rowsSkipped.Add(float64(n))
	}
}

// UpdateTicketsLoaded sets the size of the last full read.
func (m *Manager) UpdateTicketsLoaded(n int) {
	m.ticketsLoaded.Set(float64(n))
}

// RecordCacheLookup counts a cache lookup result.
func (m *Manager) RecordCacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordMutation counts a mutation outcome.
func (m *Manager) RecordMutation(op, outcome string) {
	m.mutations.WithLabelValues(op, outcome).Inc()
}

// Package-level helpers backed by the global manager.

// RecordRemoteCall counts a remote call and observes its latency.
func RecordRemoteCall(op, outcome string, latencyMs float64) {
	globalManager.RecordRemoteCall(op, outcome, latencyMs)
}

// RecordRowsSkipped adds n malformed rows.
func RecordRowsSkipped(n int) {
	globalManager.RecordRowsSkipped(n)
}

// UpdateTicketsLoaded sets the size of the last full read.
func UpdateTicketsLoaded(n int) {
	globalManager.UpdateTicketsLoaded(n)
}

// RecordCacheLookup counts a cache lookup result.
func RecordCacheLookup(result string) {
	globalManager.RecordCacheLookup(result)
}

// RecordMutation counts a mutation outcome.
func RecordMutation(op, outcome string) {
	globalManager.RecordMutation(op, outcome)
}

// UpdateSessionsActive sets the number of live sessions.
func UpdateSessionsActive(n int) {
	globalManager.sessionsActive.Set(float64(n))
}

// RecordSessionEvicted counts a dropped session.
func RecordSessionEvicted() {
	globalManager.sessionsEvicted.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
