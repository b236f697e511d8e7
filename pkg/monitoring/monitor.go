package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// BuilderMutations 按结果统计构建操作：ok 或导致文档未修改的错误类别
	BuilderMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_builder_mutations_total",
			Help: "Builder operations applied to assessment documents",
		},
		[]string{"op", "result"},
	)

	SaveOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_saves_total",
			Help: "Background assessment saves by result",
		},
		[]string{"result"},
	)

	SaveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assessment_save_duration_seconds",
			Help:    "Duration of assessment saves including simulated latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	RetryQueueSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assessment_retry_queue_size",
			Help: "Documents waiting for a save retry",
		},
	)

	PreviewSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_preview_submissions_total",
			Help: "Preview submissions by result",
		},
		[]string{"result"},
	)

	SyncSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "assessment_sync_subscribers",
			Help: "Open websocket subscriptions to sync status",
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			BuilderMutations,
			SaveOutcomes,
			SaveDuration,
			RetryQueueSize,
			PreviewSubmissions,
			SyncSubscribers,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
