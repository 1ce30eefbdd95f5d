package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	generatedItems = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kickaider",
		Subsystem: "generator",
		Name:      "items_total",
		Help:      "Number of synthetic employees or events generated, by view.",
	}, []string{"view"})
	mutationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kickaider",
		Subsystem: "persistence",
		Name:      "last_mutation_timestamp_seconds",
		Help:      "Unix timestamp of the most recent settings or catalogue mutation committed to storage.",
	})
	auditGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kickaider",
		Subsystem: "persistence",
		Name:      "last_audit_appended_timestamp_seconds",
		Help:      "Unix timestamp of the most recent audit entry stored.",
	})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kickaider",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, by method, route pattern and status code.",
	}, []string{"method", "route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kickaider",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	httpRateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kickaider",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "HTTP requests rejected by the rate limiter.",
	})
)

func init() {
	prometheus.MustRegister(generatedItems, mutationGauge, auditGauge, httpRequests, httpDuration, httpRateLimited)
}

// RecordGenerated counts items produced by the synthetic data generator.
func RecordGenerated(view string, n int) {
	if n <= 0 {
		return
	}
	generatedItems.WithLabelValues(view).Add(float64(n))
}

// RecordMutation updates the persistence watermark gauge.
func RecordMutation(ts time.Time) {
	if ts.IsZero() {
		return
	}
	mutationGauge.Set(float64(ts.Unix()))
}

// RecordAuditAppended updates the audit watermark gauge.
func RecordAuditAppended(ts time.Time) {
	if ts.IsZero() {
		return
	}
	auditGauge.Set(float64(ts.Unix()))
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited() {
	httpRateLimited.Inc()
}
