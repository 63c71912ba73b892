// Package telemetry exposes Prometheus collectors for the analyzer service.
package telemetry

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	analysesTotal           *prometheus.CounterVec
	analysisDurationSeconds *prometheus.HistogramVec
	probeRequestsTotal      *prometheus.CounterVec
	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDurationSecs *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors. Safe to call multiple times; the observe
// helpers no-op until it has run.
func Init() {
	once.Do(func() {
		analysesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wpscope_analyses_total",
				Help: "Total site analyses, labeled by outcome and whether WordPress was detected.",
			},
			[]string{"outcome", "wordpress"},
		)

		analysisDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wpscope_analysis_duration_seconds",
				Help:    "Histogram of end-to-end analysis latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"outcome"},
		)

		probeRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wpscope_probe_requests_total",
				Help: "Total outbound probe requests, labeled by method and status class.",
			},
			[]string{"method", "status_class"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total inbound HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecs = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of inbound HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 30},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAnalysis records one finished (or aborted) analysis.
func ObserveAnalysis(outcome string, wordpress bool, duration time.Duration) {
	if analysesTotal == nil {
		return
	}
	analysesTotal.WithLabelValues(outcome, strconv.FormatBool(wordpress)).Inc()
	analysisDurationSeconds.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveProbe records one completed outbound probe exchange.
func ObserveProbe(method string, statusCode int) {
	if probeRequestsTotal == nil {
		return
	}
	probeRequestsTotal.WithLabelValues(method, statusClass(statusCode)).Inc()
}

// ObserveHTTPRequest records one inbound request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecs.WithLabelValues(method, route).Observe(duration.Seconds())
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "error"
	}
}

// Middleware records request metrics for the chi router.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				routePattern = p
			}
		}
		ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}
