// Package metrics exposes Prometheus collectors for the live feed, the
// history poller and the HTTP server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"picmon/internal/transport"
)

const namespace = "picmon"

var statuses = []transport.Status{
	transport.StatusConnecting,
	transport.StatusConnected,
	transport.StatusDisconnected,
	transport.StatusError,
}

type Metrics struct {
	messages        *prometheus.CounterVec
	dropped         *prometheus.CounterVec
	status          *prometheus.GaugeVec
	historyFetches  *prometheus.CounterVec
	historyRecords  prometheus.Gauge
	archiveFailures prometheus.Counter

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Live readings delivered by the broker.",
		}, []string{"transport"}),
		dropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Live messages that could not be applied.",
		}, []string{"transport", "reason"}),
		status: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_status",
			Help:      "1 for the current connection status of each transport, 0 otherwise.",
		}, []string{"transport", "status"}),
		historyFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_fetches_total",
			Help:      "History fetches by result.",
		}, []string{"result"}),
		historyRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_records",
			Help:      "Records returned by the last successful history fetch.",
		}),
		archiveFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_write_failures_total",
			Help:      "Readings that could not be written to the local archive.",
		}),
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "code"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"method", "code"}),
	}
}

func (m *Metrics) MessageReceived(transportName string) {
	m.messages.WithLabelValues(transportName).Inc()
}

func (m *Metrics) MessageDropped(transportName, reason string) {
	m.dropped.WithLabelValues(transportName, reason).Inc()
}

func (m *Metrics) StatusChanged(transportName, status string) {
	for _, s := range statuses {
		v := 0.0
		if string(s) == status {
			v = 1
		}
		m.status.WithLabelValues(transportName, string(s)).Set(v)
	}
}

func (m *Metrics) HistoryFetched(result string, records int) {
	m.historyFetches.WithLabelValues(result).Inc()
	if result == "ok" {
		m.historyRecords.Set(float64(records))
	}
}

func (m *Metrics) ArchiveFailed() {
	m.archiveFailures.Inc()
}

// Middleware counts and times every request passing through next.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.requestsTotal,
		promhttp.InstrumentHandlerDuration(m.requestDuration, next))
}

// Handler serves the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
