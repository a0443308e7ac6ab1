package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is the metrics interface used by services and handlers.
// Prometheus-backed and no-op implementations are provided.
type Recorder interface {
	// Activity ingestion
	RecordActivityIngested(result string) // "stored", "duplicate", "error"
	RecordWebhookDelivery(event string, success bool)

	// Stream fan-out
	RecordStreamConnected()
	RecordStreamDisconnected()
	RecordBroadcast(delivered, failed int)

	// HTTP (used by the middleware in http.go)
	RecordHTTPRequest(method, path, status string, duration time.Duration)
}

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Activity ingestion
	ActivityIngestedTotal *prometheus.CounterVec
	WebhookDeliveryTotal  *prometheus.CounterVec

	// Stream fan-out
	StreamConnectionsActive prometheus.Gauge
	StreamConnectionsTotal  prometheus.Counter
	BroadcastsSentTotal     prometheus.Counter
	BroadcastFailuresTotal  prometheus.Counter

	// HTTP request metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag.
// Uses sync.Once so Prometheus collectors are only registered once.
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		ActivityIngestedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_ingested_total",
				Help: "Total number of activity records processed by ingestion",
			},
			[]string{"result"}, // created, duplicate, error
		),
		WebhookDeliveryTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_deliveries_total",
				Help: "Total number of GitHub webhook deliveries received",
			},
			[]string{"event", "result"}, // result: success, error
		),
		StreamConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stream_connections_active",
				Help: "Number of currently open activity stream connections",
			},
		),
		StreamConnectionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stream_connections_total",
				Help: "Total number of activity stream connections opened",
			},
		),
		BroadcastsSentTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stream_broadcasts_sent_total",
				Help: "Total number of activity events delivered to stream connections",
			},
		),
		BroadcastFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stream_broadcast_failures_total",
				Help: "Total number of failed deliveries that evicted a connection",
			},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being served",
			},
		),
	}
}

func (m *Metrics) RecordActivityIngested(result string) {
	m.ActivityIngestedTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordWebhookDelivery(event string, success bool) {
	result := resultError
	if success {
		result = resultSuccess
	}
	m.WebhookDeliveryTotal.WithLabelValues(event, result).Inc()
}

func (m *Metrics) RecordStreamConnected() {
	m.StreamConnectionsActive.Inc()
	m.StreamConnectionsTotal.Inc()
}

func (m *Metrics) RecordStreamDisconnected() {
	m.StreamConnectionsActive.Dec()
}

func (m *Metrics) RecordBroadcast(delivered, failed int) {
	if delivered > 0 {
		m.BroadcastsSentTotal.Add(float64(delivered))
	}
	if failed > 0 {
		m.BroadcastFailuresTotal.Add(float64(failed))
	}
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
