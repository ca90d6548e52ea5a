package lbserver

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the per-app request instruments. Each app gets its own
// registry so parallel test servers never collide on registration.
type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg *prometheus.Registry) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fnmesh",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests served by this endpoint.",
			},
			[]string{"identity", "method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fnmesh",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"identity", "method", "path", "status"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// middleware records one observation per request, labeled by the declared
// route path so parameterized routes do not explode cardinality.
func (m *metrics) middleware(identity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requests.WithLabelValues(identity, c.Request.Method, path, status).Inc()
		m.duration.WithLabelValues(identity, c.Request.Method, path, status).
			Observe(time.Since(start).Seconds())
	}
}
