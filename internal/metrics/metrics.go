// Package metrics holds the Prometheus collectors for HTTP traffic and the lead pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	chatStreams = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_streams_total",
			Help: "Chat turns by outcome",
		},
		[]string{"outcome"},
	)

	leadExtractions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_extractions_total",
			Help: "Background lead extractions by outcome (saved, skipped, failed)",
		},
		[]string{"outcome"},
	)

	leadUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_upserts_total",
			Help: "Lead upserts by result (created, updated, unchanged)",
		},
		[]string{"result"},
	)

	leadNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_notifications_total",
			Help: "Lead notifications by outcome",
		},
		[]string{"outcome"},
	)

	backgroundTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "background_tasks_in_flight",
			Help: "Detached background tasks currently running or queued",
		},
	)
)

// responseWriter records the status code. Unwrap lets http.ResponseController reach
// the underlying writer so streamed responses can still be flushed.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count, latency and in-flight connections.
// Paths are labelled with the chi route pattern to keep cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

func RecordChatStream(outcome string) {
	chatStreams.WithLabelValues(outcome).Inc()
}

func RecordExtraction(outcome string) {
	leadExtractions.WithLabelValues(outcome).Inc()
}

func RecordLeadUpsert(result string) {
	leadUpserts.WithLabelValues(result).Inc()
}

func RecordNotification(outcome string) {
	leadNotifications.WithLabelValues(outcome).Inc()
}

func BackgroundTaskStarted() {
	backgroundTasks.Inc()
}

func BackgroundTaskFinished() {
	backgroundTasks.Dec()
}
