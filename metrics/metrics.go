// Package metrics exposes Prometheus instrumentation for the frontend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Frontend holds the frontend's metric vectors.
type Frontend struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Checkouts *prometheus.CounterVec
}

// New registers and returns the frontend metrics.
func New() *Frontend {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karigarmart",
		Subsystem: "frontend",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"path", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "karigarmart",
		Subsystem: "frontend",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"path"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "karigarmart",
		Subsystem: "frontend",
		Name:      "checkout_attempts_total",
		Help:      "Checkout attempts by terminal status.",
	}, []string{"status"})

	prometheus.MustRegister(requests, latency, checkouts)
	return &Frontend{Requests: requests, LatencyMS: latency, Checkouts: checkouts}
}

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
