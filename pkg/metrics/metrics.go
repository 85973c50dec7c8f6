package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Signaling relay metrics
	SignalsEnqueued  prometheus.Counter
	SignalsDelivered prometheus.Counter
	SignalsExpired   prometheus.Counter
	ActiveMailboxes  prometheus.Gauge

	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestTotal    *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		SignalsEnqueued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_enqueued_total",
			Help:      "Total number of signaling messages accepted for relay",
		}),
		SignalsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_delivered_total",
			Help:      "Total number of signaling messages delivered to a poll",
		}),
		SignalsExpired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_expired_total",
			Help:      "Total number of signaling messages dropped by the TTL sweep",
		}),
		ActiveMailboxes: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signaling_active_mailboxes",
			Help:      "Current number of non-empty signaling mailboxes",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),
		RequestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
	}
}
