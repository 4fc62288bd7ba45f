package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// WebhookDeliveries counts inbound webhook bodies by the shape they were
	// classified as.
	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Inbound webhook deliveries by classified payload shape.",
		},
		[]string{"shape"},
	)

	// WebhookEvents counts canonical events by how ingest handled them
	// (stored, resolved, status, skipped, failed).
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Normalized webhook events by ingest outcome.",
		},
		[]string{"outcome"},
	)

	// UpstreamRequests counts provider API calls. outcome is the status code,
	// or "error" for transport failures.
	UpstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qontak_requests_total",
			Help: "Outbound provider API requests.",
		},
		[]string{"op", "host", "outcome"},
	)

	// UpstreamLatency records provider API latency in seconds.
	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qontak_request_duration_seconds",
			Help:    "Duration of outbound provider API requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op", "host"},
	)
)

func init() {
	prometheus.MustRegister(WebhookDeliveries, WebhookEvents, UpstreamRequests, UpstreamLatency)
}
