// Package metrics exposes Prometheus metrics for extractions and the HTTP
// server.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sadopc/matviewddl/internal/extract"
)

// Extraction outcomes used as the "status" label.
const (
	StatusOK              = "ok"
	StatusValidationError = "validation_error"
	StatusConnectionError = "connection_error"
	StatusQueryError      = "query_error"
	StatusError           = "error"
)

var (
	extractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matviewddl_extractions_total",
			Help: "Total number of schema extractions",
		},
		[]string{"status"},
	)

	extractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matviewddl_extraction_duration_seconds",
			Help:    "Schema extraction duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)

	objectsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matviewddl_objects_emitted_total",
			Help: "Total number of DDL statements emitted",
		},
		[]string{"kind"},
	)

	extractionsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matviewddl_extractions_in_flight",
			Help: "Number of extractions currently running",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matviewddl_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matviewddl_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matviewddl_http_rate_limited_total",
			Help: "Total number of HTTP requests rejected by the rate limiter",
		},
	)

	sharedExtractionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matviewddl_shared_extractions_total",
			Help: "Total number of requests served by an extraction already in flight",
		},
	)
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusOf maps an extraction error to its status label.
func StatusOf(err error) string {
	var (
		verr *extract.ValidationError
		cerr *extract.ConnectionError
		qerr *extract.QueryError
	)
	switch {
	case err == nil:
		return StatusOK
	case errors.As(err, &verr):
		return StatusValidationError
	case errors.As(err, &cerr):
		return StatusConnectionError
	case errors.As(err, &qerr):
		return StatusQueryError
	default:
		return StatusError
	}
}

// RecordExtraction records the outcome of one extraction. res may be nil.
func RecordExtraction(res *extract.Result, err error, duration time.Duration) {
	status := StatusOf(err)
	extractionsTotal.WithLabelValues(status).Inc()
	extractionDuration.WithLabelValues(status).Observe(duration.Seconds())
	if err == nil && res != nil {
		objectsEmitted.WithLabelValues(extract.KindMaterializedView).Add(float64(res.Views))
		objectsEmitted.WithLabelValues(extract.KindIndex).Add(float64(res.Indexes))
	}
}

// ExtractionStarted increments the in-flight gauge and returns a func that
// decrements it.
func ExtractionStarted() func() {
	extractionsInFlight.Inc()
	return extractionsInFlight.Dec
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, statusClass(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimited records a request rejected by the rate limiter.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

// RecordSharedExtraction records a request that reused an in-flight
// extraction.
func RecordSharedExtraction() {
	sharedExtractionsTotal.Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
