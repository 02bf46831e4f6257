package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics registers the scheduler's Prometheus collectors, adapted from the
// teacher's MetricsService: run count and duration by engine, plus the
// fitness-total distribution of every scored run.
type Metrics struct {
	registry    *prometheus.Registry
	handler     http.Handler
	runTotal    *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
	fitnessTotal prometheus.Histogram
	httpDuration *prometheus.HistogramVec
}

// NewMetrics registers core collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	runTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "examboard_runs_total",
		Help: "Total number of scheduling runs submitted, by engine and outcome",
	}, []string{"engine", "status"})

	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "examboard_run_duration_seconds",
		Help:    "Duration of scheduling runs in seconds, by engine",
		Buckets: prometheus.DefBuckets,
	}, []string{"engine"})

	fitnessTotal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "examboard_fitness_total",
		Help:    "Distribution of the Standard Fitness total score across completed runs",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "examboard_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	registry.MustRegister(runTotal, runDuration, fitnessTotal, httpDuration)

	return &Metrics{
		registry:     registry,
		handler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		runTotal:     runTotal,
		runDuration:  runDuration,
		fitnessTotal: fitnessTotal,
		httpDuration: httpDuration,
	}
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler { return m.handler }

// ObserveRun records one completed (or failed) run.
func (m *Metrics) ObserveRun(engine, status string, elapsed time.Duration, fitnessTotal float64) {
	m.runTotal.WithLabelValues(engine, status).Inc()
	m.runDuration.WithLabelValues(engine).Observe(elapsed.Seconds())
	if status == "succeeded" {
		m.fitnessTotal.Observe(fitnessTotal)
	}
}

// GinMiddleware records every HTTP request's duration, matching the
// teacher's middleware.Metrics pattern.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		m.httpDuration.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Observe(time.Since(start).Seconds())
	}
}
