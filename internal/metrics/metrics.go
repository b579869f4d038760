package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the monitor pipeline.
type Metrics struct {
	registry                   *prometheus.Registry
	segmentsProcessedTotal     prometheus.Counter
	recordsPublishedTotal      prometheus.Counter
	captureRetriesTotal        prometheus.Counter
	transcriptionFailuresTotal prometheus.Counter
	summaryFallbacksTotal      prometheus.Counter
	connectedSubscribers       prometheus.Gauge
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	segmentsProcessedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_segments_processed_total",
		Help: "Total number of audio segments dispatched to the pipeline",
	})
	recordsPublishedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_records_published_total",
		Help: "Total number of transcript records published to subscribers",
	})
	captureRetriesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_capture_retries_total",
		Help: "Total number of capture retry attempts",
	})
	transcriptionFailuresTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_transcription_failures_total",
		Help: "Total number of segments dropped because transcription failed or came back empty",
	})
	summaryFallbacksTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "monitor_summary_fallbacks_total",
		Help: "Total number of summaries degraded to word truncation",
	})
	connectedSubscribers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "monitor_connected_subscribers",
		Help: "Number of live transcript subscribers",
	})

	registry.MustRegister(
		segmentsProcessedTotal,
		recordsPublishedTotal,
		captureRetriesTotal,
		transcriptionFailuresTotal,
		summaryFallbacksTotal,
		connectedSubscribers,
	)

	return &Metrics{
		registry:                   registry,
		segmentsProcessedTotal:     segmentsProcessedTotal,
		recordsPublishedTotal:      recordsPublishedTotal,
		captureRetriesTotal:        captureRetriesTotal,
		transcriptionFailuresTotal: transcriptionFailuresTotal,
		summaryFallbacksTotal:      summaryFallbacksTotal,
		connectedSubscribers:       connectedSubscribers,
	}
}

// IncSegmentsProcessed increments the dispatched segments counter.
func (m *Metrics) IncSegmentsProcessed() {
	m.segmentsProcessedTotal.Inc()
}

// IncRecordsPublished increments the published records counter.
func (m *Metrics) IncRecordsPublished() {
	m.recordsPublishedTotal.Inc()
}

// IncCaptureRetries increments the capture retries counter.
func (m *Metrics) IncCaptureRetries() {
	m.captureRetriesTotal.Inc()
}

// IncTranscriptionFailures increments the dropped segments counter.
func (m *Metrics) IncTranscriptionFailures() {
	m.transcriptionFailuresTotal.Inc()
}

// IncSummaryFallbacks increments the degraded summaries counter.
func (m *Metrics) IncSummaryFallbacks() {
	m.summaryFallbacksTotal.Inc()
}

// SetConnectedSubscribers sets the live subscriber gauge.
func (m *Metrics) SetConnectedSubscribers(n int) {
	m.connectedSubscribers.Set(float64(n))
}

// Handler returns an http.Handler serving the metrics registry.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
