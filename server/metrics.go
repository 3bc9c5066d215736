package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the server's Prometheus collectors. Each server gets
// its own registry so tests can run several instances.
type metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	artifactWrites  prometheus.Counter
	stageAdvances   prometheus.Counter
	projectClears   prometheus.Counter
	validationRuns  prometheus.Counter
}

func newMetrics() *metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &metrics{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "workbench",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status code.",
		}, []string{"method", "path", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "workbench",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		artifactWrites: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workbench",
			Name:      "artifact_writes_total",
			Help:      "Artifact create and update operations.",
		}),
		stageAdvances: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workbench",
			Name:      "workflow_advances_total",
			Help:      "Workflow stage advances.",
		}),
		projectClears: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workbench",
			Name:      "project_clears_total",
			Help:      "Per-group project state clears during rollback.",
		}),
		validationRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "workbench",
			Name:      "validation_runs_total",
			Help:      "Validation runs triggered via the API.",
		}),
	}
}

const apiPrefix = "/api/devtools/"

// routeLabel collapses per-resource path segments into route patterns
// so the path label stays bounded instead of growing with every
// artifact ID.
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, apiPrefix+"artifacts/"):
		return apiPrefix + "artifacts/{id}"
	case strings.HasPrefix(path, apiPrefix+"render/"):
		return apiPrefix + "render/{id}"
	case strings.HasPrefix(path, apiPrefix+"schemas/"):
		return apiPrefix + "schemas/{type}"
	}
	return path
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request counting and latency
// observation.
func (m *metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The wrapper hides http.Hijacker, which the WebSocket upgrade
		// needs; pass that route through untouched.
		if r.URL.Path == apiPrefix+"events" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		route := routeLabel(r.URL.Path)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
