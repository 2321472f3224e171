// Package metrics provides Prometheus metrics collection for HTTP requests
// and skill generation runs.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/agentskills/marketplace/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	subsystem = "marketplace"
)

// Metrics provides Prometheus metrics collection for HTTP requests and
// composer generation runs.
type Metrics struct {
	reg *prometheus.Registry

	TotalHTTPRequestsCounter prometheus.Counter
	HTTPRequestsCounters     map[int]prometheus.Counter
	HTTPDurationHistogram    prometheus.Histogram

	GenerationMetricCounters    map[int]prometheus.Counter
	GenerationDurationHistogram prometheus.Histogram

	customMetrics []prometheus.Collector

	stopChan chan os.Signal
	errChan  chan error
	log      logger.Logger
}

// NewMetrics creates a new Metrics instance with the specified collectors enabled.
func NewMetrics(httpCounters, composerMetrics bool, l logger.Logger) Metrics {
	m := Metrics{
		reg: prometheus.NewRegistry(),
		log: l,
	}
	if httpCounters {
		m.TotalHTTPRequestsCounter = prometheus.NewCounter(prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "total_http_requests",
			Help:      "Total HTTP requests",
		})
		m.reg.MustRegister(m.TotalHTTPRequestsCounter)
		m.HTTPRequestsCounters = make(map[int]prometheus.Counter)

		m.HTTPDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.3, 0.5, 0.7, 1.0, 3.0, 5.0, 7.0, 10.0},
		})
		m.reg.MustRegister(m.HTTPDurationHistogram)
	}
	if composerMetrics {
		m.GenerationMetricCounters = getGenerationMetricCounters()
		for k := range m.GenerationMetricCounters {
			m.reg.MustRegister(m.GenerationMetricCounters[k])
		}
		m.GenerationDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "generation_duration_seconds",
			Help:      "Skill generation duration in seconds",
			Buckets:   []float64{1.0, 5.0, 10.0, 30.0, 60.0, 120.0, 300.0},
		})
		m.reg.MustRegister(m.GenerationDurationHistogram)
	}
	return m
}

// Listen starts the metrics HTTP server on the specified port.
func (m *Metrics) Listen(port int) {
	m.log.Info("Starting metrics listener", logger.IntField("port", port))
	mux := http.NewServeMux()
	mux.Handle("/", http.NotFoundHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigChan := make(chan os.Signal)
	errChan := make(chan error)
	go func() {
		errChan <- server.ListenAndServe()
	}()
	go func() {
		for {
			sig := <-sigChan
			if sig == os.Interrupt {
				m.log.Info("Stopping metrics listener")
				_ = server.Shutdown(context.Background())
				return
			}
		}
	}()
	m.errChan = errChan
	m.stopChan = sigChan
}

// Generation metric counter indices.
const (
	GenerationMetricStarted = iota
	GenerationMetricCompleted
	GenerationMetricFailed
	GenerationMetricPublished
)

func getGenerationMetricCounters() map[int]prometheus.Counter {
	m := make(map[int]prometheus.Counter)
	m[GenerationMetricStarted] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_generations_started",
		Help:      "Total skill generation runs started",
	})
	m[GenerationMetricCompleted] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_generations_completed",
		Help:      "Total skill generation runs completed successfully",
	})
	m[GenerationMetricFailed] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_generations_failed",
		Help:      "Total skill generation runs that ended in error",
	})
	m[GenerationMetricPublished] = prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      "total_skills_published",
		Help:      "Total skills published to the catalog",
	})
	return m
}

// AddCustomMetric registers a custom Prometheus collector.
func (m *Metrics) AddCustomMetric(c prometheus.Collector) {
	m.customMetrics = append(m.customMetrics, c)
	m.reg.MustRegister(m.customMetrics[len(m.customMetrics)-1])
}

// IncrementHTTPResponseCounter increments the counter for the given HTTP status code.
func (m *Metrics) IncrementHTTPResponseCounter(code int) {
	_, ok := m.HTTPRequestsCounters[code]
	if !ok {
		m.HTTPRequestsCounters[code] = newTotalHTTPReqMetric(code)
		m.reg.MustRegister(m.HTTPRequestsCounters[code])
	}
	m.HTTPRequestsCounters[code].Inc()
}

// IncrementGenerationCounter increments the given generation counter if
// composer metrics are enabled.
func (m *Metrics) IncrementGenerationCounter(metric int) {
	if m.GenerationMetricCounters == nil {
		return
	}
	if c, ok := m.GenerationMetricCounters[metric]; ok {
		c.Inc()
	}
}

// ObserveGenerationDuration records how long a generation run took.
func (m *Metrics) ObserveGenerationDuration(d time.Duration) {
	if m.GenerationDurationHistogram == nil {
		return
	}
	m.GenerationDurationHistogram.Observe(d.Seconds())
}

func newTotalHTTPReqMetric(code int) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Subsystem: subsystem,
		Name:      fmt.Sprintf("total_%d_http_responses", code),
		Help:      fmt.Sprintf("Total %s HTTP responses returned", http.StatusText(code)),
	})
}

// HTTPMiddleware returns a Chi-compatible middleware that tracks HTTP metrics
func (m *Metrics) HTTPMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Increment total requests counter
			m.TotalHTTPRequestsCounter.Inc()

			// Create a response writer that captures the status code
			rw := &responseWriter{ResponseWriter: w, statusCode: 200}

			// Call the next handler
			next.ServeHTTP(rw, r)

			// Record metrics
			duration := time.Since(start)
			m.HTTPDurationHistogram.Observe(duration.Seconds())
			m.IncrementHTTPResponseCounter(rw.statusCode)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher so streaming responses keep flushing
// through the metrics middleware.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
