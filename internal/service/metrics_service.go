package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry for HTTP traffic and solver runs.
type MetricsService struct {
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	solveDuration   *prometheus.HistogramVec
	modelVariables  prometheus.Histogram
	solvesInFlight  prometheus.Gauge
	rejections      *prometheus.CounterVec
}

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

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_solve_duration_seconds",
		Help:    "Model build and solve time by outcome",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status", "engine", "strategy"})

	modelVariables := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_model_variables",
		Help:    "Boolean variables per built model",
		Buckets: prometheus.ExponentialBuckets(100, 4, 8),
	})

	solvesInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_solves_in_flight",
		Help: "Solves currently holding a solver slot",
	})

	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_requests_rejected_total",
		Help: "Requests rejected before reaching the solver",
	}, []string{"reason"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, solveDuration, modelVariables, solvesInFlight, rejections, goroutines)

	return &MetricsService{
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		solveDuration:   solveDuration,
		modelVariables:  modelVariables,
		solvesInFlight:  solvesInFlight,
		rejections:      rejections,
	}
}

func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveSolve records one finished solve. variables is skipped when zero.
func (m *MetricsService) ObserveSolve(status, engine, strategy string, duration time.Duration, variables int) {
	if m == nil {
		return
	}
	m.solveDuration.WithLabelValues(status, engine, strategy).Observe(duration.Seconds())
	if variables > 0 {
		m.modelVariables.Observe(float64(variables))
	}
}

// SolveStarted marks a solver slot as taken and returns the matching release.
func (m *MetricsService) SolveStarted() func() {
	if m == nil {
		return func() {}
	}
	m.solvesInFlight.Inc()
	return m.solvesInFlight.Dec
}

func (m *MetricsService) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}
