package httpapi

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics is the singleton Prometheus collector set, grounded in
// apex-build-platform's internal/metrics.Get() (sync.Once + promauto),
// scoped down to the three routes this engine instruments (/run, /repair,
// /repair/stream).
type metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
}

var (
	metricsOnce sync.Once
	metricsInst *metrics
)

func getMetrics() *metrics {
	metricsOnce.Do(func() {
		metricsInst = &metrics{
			requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Namespace: "autofix",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by endpoint, method, and status code.",
			}, []string{"endpoint", "method", "status"}),
			requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "autofix",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30},
			}, []string{"endpoint", "method"}),
			requestsInFlight: promauto.NewGauge(prometheus.GaugeOpts{
				Namespace: "autofix",
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Requests currently being handled.",
			}),
		}
	})
	return metricsInst
}

func prometheusMiddleware() gin.HandlerFunc {
	m := getMetrics()
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		m.requestsInFlight.Inc()
		defer m.requestsInFlight.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		status := formatStatus(c.Writer.Status())
		m.requestsTotal.WithLabelValues(endpoint, c.Request.Method, status).Inc()
		m.requestDuration.WithLabelValues(endpoint, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func formatStatus(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
