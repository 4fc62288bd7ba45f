// This file instruments HTTP traffic for Prometheus. Labels are the HTTP
// method, the registered Gin route (raw path when nothing matched) and the
// status code, which keeps cardinality bounded even though room and chat
// ids appear in URLs.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// Requests turned away by the limiter or answered from a stored send.
	httpShortCircuit = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_short_circuit_total",
			Help: "Requests answered without reaching the provider (rate_limited, replayed).",
		},
		[]string{"path", "reason"},
	)

	// Webhook bodies are the big ones; buckets reach 2 MiB.
	httpReqSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "Size of HTTP request bodies in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpReqSize, httpShortCircuit)
}

// Metrics records request count, latency, in-flight gauge and request size,
// plus rate-limited and idempotent-replay answers.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		status := c.Writer.Status()
		httpReqs.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		switch {
		case status == http.StatusTooManyRequests:
			httpShortCircuit.WithLabelValues(path, "rate_limited").Inc()
		case c.Writer.Header().Get(HeaderReplayed) == "true":
			httpShortCircuit.WithLabelValues(path, "replayed").Inc()
		}
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if n := c.Request.ContentLength; n >= 0 {
			httpReqSize.WithLabelValues(method, path).Observe(float64(n))
		}
	}
}
