// Package metrics provides Prometheus metrics for the level card service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Render outcomes used as the "outcome" label.
const (
	OutcomeOK         = "ok"
	OutcomeTemplate   = "template"
	OutcomeVector     = "vector"
	OutcomeAllocation = "allocation"
	OutcomeEncoding   = "encoding"
	OutcomeWorkerLost = "worker_lost"
	OutcomeCancelled  = "cancelled"
)

// Render pipeline stages used as the "stage" label.
const (
	StageFill   = "fill"
	StageParse  = "parse"
	StageRaster = "raster"
	StageEncode = "encode"
	StageTotal  = "total"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Render pipeline
	renders            *prometheus.CounterVec
	renderStageLatency *prometheus.HistogramVec
	renderBytes        prometheus.Histogram

	// Render queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueWaitLatency   prometheus.Histogram

	// Render workers
	workerCount       prometheus.Gauge
	workerActiveCount prometheus.Gauge
	workerIdleCount   prometheus.Gauge
	workerPanics      prometheus.Counter

	// Curve
	levelLookups prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Discord
	interactions       *prometheus.CounterVec
	interactionLatency *prometheus.HistogramVec

	// Repository and avatars
	repositoryQueryLatency *prometheus.HistogramVec
	avatarFetches          *prometheus.CounterVec
	avatarFetchLatency     prometheus.Histogram

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// System
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
		namespace:        "levelcard",
		subsystem:        "",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	// Disabled managers still hand out live collectors, just unexported ones.
	if !m.enabled {
		m.registry = prometheus.NewRegistry()
	}

	m.initializeMetrics()
	return m
}

// RefreshInterval is how often gauge updaters should sample.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

func (m *Manager) name(n string) string { return m.metricPrefix + n }

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
		Buckets:     buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.renders = auto.NewCounterVec(
		m.counterOpts("renders_total", "Card renders by outcome"),
		[]string{"outcome"},
	)
	m.renderStageLatency = auto.NewHistogramVec(
		m.histogramOpts("render_stage_latency_milliseconds", "Latency of each render pipeline stage in milliseconds", m.histogramBuckets),
		[]string{"stage"},
	)
	m.renderBytes = auto.NewHistogram(
		m.histogramOpts("render_png_bytes", "Size of encoded card images in bytes",
			prometheus.ExponentialBuckets(16<<10, 2, 8)),
	)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Render jobs waiting for a worker"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum render jobs that can wait"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)"))
	m.queueEnqueueRate = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Render jobs enqueued"))
	m.queueDequeueRate = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Render jobs dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Render jobs that could not be enqueued"))
	m.queueWaitLatency = auto.NewHistogram(
		m.histogramOpts("queue_wait_latency_milliseconds", "Time a render job waited for a worker in milliseconds", m.histogramBuckets),
	)

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured render workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Render workers currently rendering"))
	m.workerIdleCount = auto.NewGauge(m.gaugeOpts("worker_idle_count", "Render workers currently idle"))
	m.workerPanics = auto.NewCounter(m.counterOpts("worker_panics_total", "Render jobs abandoned by a panicking worker"))

	m.levelLookups = auto.NewCounter(m.counterOpts("level_lookups_total", "XP to level conversions served"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.interactions = auto.NewCounterVec(
		m.counterOpts("discord_interactions_total", "Discord interactions by command and outcome"),
		[]string{"command", "outcome"},
	)
	m.interactionLatency = auto.NewHistogramVec(
		m.histogramOpts("discord_interaction_latency_milliseconds", "Time from interaction to followup in milliseconds", m.histogramBuckets),
		[]string{"command"},
	)

	m.repositoryQueryLatency = auto.NewHistogramVec(
		m.histogramOpts("repository_query_latency_milliseconds", "Repository query latency in milliseconds", m.histogramBuckets),
		[]string{"query"},
	)
	m.avatarFetches = auto.NewCounterVec(
		m.counterOpts("avatar_fetches_total", "Avatar downloads by outcome"),
		[]string{"outcome"},
	)
	m.avatarFetchLatency = auto.NewHistogram(
		m.histogramOpts("avatar_fetch_latency_milliseconds", "Avatar download latency in milliseconds", m.histogramBuckets),
	)

	m.errorRateByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// Render metrics.

// RecordRender counts a finished render by outcome.
func RecordRender(outcome string) {
	globalManager.renders.WithLabelValues(outcome).Inc()
}

// RecordRenderStage records the latency of one pipeline stage.
func RecordRenderStage(stage string, d time.Duration) {
	globalManager.renderStageLatency.WithLabelValues(stage).Observe(ms(d))
}

// RecordRenderBytes records the encoded size of a card.
func RecordRenderBytes(n int) {
	globalManager.renderBytes.Observe(float64(n))
}

// Queue metrics.

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordQueueWait records how long a job waited before a worker took it.
func RecordQueueWait(d time.Duration) {
	globalManager.queueWaitLatency.Observe(ms(d))
}

// Worker metrics.

// UpdateWorkerCount sets the configured worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerPanic counts a job lost to a panicking worker.
func RecordWorkerPanic() {
	globalManager.workerPanics.Inc()
}

// RecordLevelLookup counts a served XP to level conversion.
func RecordLevelLookup() {
	globalManager.levelLookups.Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Discord metrics.

// RecordInteraction counts a handled interaction.
func RecordInteraction(command, outcome string) {
	globalManager.interactions.WithLabelValues(command, outcome).Inc()
}

// RecordInteractionLatency records the end-to-end handling time of a command.
func RecordInteractionLatency(command string, d time.Duration) {
	globalManager.interactionLatency.WithLabelValues(command).Observe(ms(d))
}

// Repository and avatar metrics.

// RecordRepositoryQuery records the latency of a named query.
func RecordRepositoryQuery(query string, d time.Duration) {
	globalManager.repositoryQueryLatency.WithLabelValues(query).Observe(ms(d))
}

// RecordAvatarFetch counts an avatar download and its latency.
func RecordAvatarFetch(outcome string, d time.Duration) {
	globalManager.avatarFetches.WithLabelValues(outcome).Inc()
	globalManager.avatarFetchLatency.Observe(ms(d))
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

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

// RefreshInterval returns the global manager's sampling interval.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
