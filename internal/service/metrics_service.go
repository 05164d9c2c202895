package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// export/upload pipelines.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	exportsTotal    *prometheus.CounterVec
	exportDuration  prometheus.Observer
	uploadsTotal    *prometheus.CounterVec
	updatesApplied  prometheus.Counter
	securityEvents  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	exportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "export_bundles_total",
		Help: "Total export bundles by outcome",
	}, []string{"outcome"})

	exportDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "export_bundle_duration_seconds",
		Help:    "Time spent building export bundles",
		Buckets: prometheus.DefBuckets,
	})

	uploadsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "status_uploads_total",
		Help: "Total status-file uploads by final stage",
	}, []string{"stage"})

	updatesApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "status_updates_applied_total",
		Help: "Total status updates written to the grading store",
	})

	securityEvents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "archive_security_events_total",
		Help: "Total archive entries rejected for safety reasons",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, exportsTotal, exportDuration, uploadsTotal, updatesApplied, securityEvents, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		exportsTotal:    exportsTotal,
		exportDuration:  exportDuration,
		uploadsTotal:    uploadsTotal,
		updatesApplied:  updatesApplied,
		securityEvents:  securityEvents,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveExport records one export attempt and its build duration.
func (m *MetricsService) ObserveExport(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.exportsTotal.WithLabelValues(outcome).Inc()
	m.exportDuration.Observe(duration.Seconds())
}

// ObserveUpload records the final stage of one upload run.
func (m *MetricsService) ObserveUpload(stage string, appliedCount, securityEvents int) {
	if m == nil {
		return
	}
	m.uploadsTotal.WithLabelValues(stage).Inc()
	if appliedCount > 0 {
		m.updatesApplied.Add(float64(appliedCount))
	}
	if securityEvents > 0 {
		m.securityEvents.Add(float64(securityEvents))
	}
}
