package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qsim/internal/backtest"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	backtestsTotal   *prometheus.CounterVec
	backtestDuration *prometheus.HistogramVec

	scheduledRunsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the service metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		backtestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backtests_total",
				Help: "Total number of backtest runs",
			},
			[]string{"strategy", "status"},
		),
		backtestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "backtest_duration_seconds",
				Help:    "Backtest run duration in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"strategy"},
		),
		scheduledRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduled_backtests_total",
				Help: "Total number of scheduler-triggered backtest runs",
			},
			[]string{"strategy", "status"},
		),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.backtestsTotal,
		m.backtestDuration,
		m.scheduledRunsTotal,
	)

	return m
}

// ObserveRun implements backtest.Monitor.
func (m *Metrics) ObserveRun(strategy backtest.Strategy, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	m.backtestsTotal.WithLabelValues(string(strategy), status).Inc()
	m.backtestDuration.WithLabelValues(string(strategy)).Observe(duration.Seconds())
}

// ObserveScheduledRun records a scheduler-triggered run.
func (m *Metrics) ObserveScheduledRun(strategy backtest.Strategy, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.scheduledRunsTotal.WithLabelValues(string(strategy), status).Inc()
}

// GinMiddleware records request counts and latency per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(
			c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.httpRequestDuration.WithLabelValues(
			c.Request.Method, endpoint,
		).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
