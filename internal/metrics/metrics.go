// Package metrics provides Prometheus instrumentation for the generator.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecordsAppended counts records accepted by a sink, by entity.
	RecordsAppended = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varpulse_records_appended_total",
		Help: "Records appended to a buffered sink",
	}, []string{"entity"})

	// Flushes counts flush tasks by entity and outcome.
	Flushes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varpulse_flushes_total",
		Help: "Buffer flushes executed",
	}, []string{"entity", "status"})

	// FlushDuration tracks how long one buffer takes to serialize and write.
	FlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "varpulse_flush_duration_seconds",
		Help:    "Buffer flush latency in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"entity"})

	// FlushQueueDepth is the number of flush tasks waiting for a writer.
	FlushQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "varpulse_flush_queue_depth",
		Help: "Flush tasks queued and not yet picked up",
	})

	// Batches counts generation batches by outcome.
	Batches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varpulse_batches_total",
		Help: "Generation batches executed",
	}, []string{"status"})

	// Runs counts generation runs by output mode and outcome.
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varpulse_runs_total",
		Help: "Generation runs completed",
	}, []string{"mode", "status"})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "varpulse_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "varpulse_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Status labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// StatusOf maps an error to a status label.
func StatusOf(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// GinMiddleware records request count and latency. The route pattern is used
// as the path label to keep cardinality bounded.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
