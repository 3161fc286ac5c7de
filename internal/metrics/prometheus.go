package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the WAV streaming service
type Metrics struct {
	// Connection metrics
	ClientsAccepted prometheus.Counter
	SessionState    prometheus.Gauge

	// Stream metrics
	ChunksSent     prometheus.Counter
	BytesSent      prometheus.Counter
	ChunkSize      prometheus.Histogram
	WriteDuration  prometheus.Histogram
	StreamDuration prometheus.Histogram
	StreamErrors   *prometheus.CounterVec

	// Client metrics
	BytesReceived prometheus.Counter
	ReadsReceived prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Connection metrics
		ClientsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "wavstream_clients_accepted_total",
			Help: "Total number of client connections accepted",
		}),
		SessionState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "wavstream_session_state",
			Help: "Current session state (0=idle 1=file_open 2=listening 3=accepted 4=streaming 5=done 6=failed)",
		}),

		// Stream metrics
		ChunksSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "wavstream_chunks_sent_total",
			Help: "Total number of payload chunks written to clients",
		}),
		BytesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "wavstream_bytes_sent_total",
			Help: "Total number of payload bytes written to clients",
		}),
		ChunkSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wavstream_chunk_size_bytes",
			Help:    "Size of written chunks in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 2, 10), // 64B to 32KB
		}),
		WriteDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wavstream_chunk_write_duration_seconds",
			Help:    "Time spent writing one chunk to the client",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		}),
		StreamDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wavstream_stream_duration_seconds",
			Help:    "Duration of completed streams in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34 minutes
		}),
		StreamErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wavstream_stream_errors_total",
			Help: "Total number of fatal stream errors by stage",
		}, []string{"stage"}),

		// Client metrics
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "wavstream_bytes_received_total",
			Help: "Total number of bytes received by the stream client",
		}),
		ReadsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "wavstream_reads_total",
			Help: "Total number of socket reads performed by the stream client",
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wavstream_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wavstream_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wavstream_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordClientAccepted increments the accepted clients counter
func (m *Metrics) RecordClientAccepted() {
	m.ClientsAccepted.Inc()
}

// SetSessionState sets the session state gauge
func (m *Metrics) SetSessionState(state int) {
	m.SessionState.Set(float64(state))
}

// RecordChunkSent records one chunk written to the client
func (m *Metrics) RecordChunkSent(sizeBytes int, writeSeconds float64) {
	m.ChunksSent.Inc()
	m.BytesSent.Add(float64(sizeBytes))
	m.ChunkSize.Observe(float64(sizeBytes))
	m.WriteDuration.Observe(writeSeconds)
}

// RecordStreamCompleted records the duration of a finished stream
func (m *Metrics) RecordStreamCompleted(durationSeconds float64) {
	m.StreamDuration.Observe(durationSeconds)
}

// RecordStreamError increments the error counter for a stage
// (open, listen, accept, read, write, stream, cancelled)
func (m *Metrics) RecordStreamError(stage string) {
	m.StreamErrors.WithLabelValues(stage).Inc()
}

// RecordRead records one socket read on the client side
func (m *Metrics) RecordRead(sizeBytes int) {
	m.ReadsReceived.Inc()
	m.BytesReceived.Add(float64(sizeBytes))
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
