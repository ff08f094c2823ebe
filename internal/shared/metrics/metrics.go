package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cv"

var (
	registry = prometheus.NewRegistry()
	factory  = promauto.With(registry)

	uploadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "CV uploads by processing status.",
		},
		[]string{"status"},
	)

	uploadFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_failures_total",
			Help:      "Failed CV uploads by error code.",
		},
		[]string{"code"},
	)

	uploadDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "End-to-end ingestion time.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
	)

	aiAttempts = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ai_attempts_total",
			Help:      "Structured-parsing provider calls by outcome.",
		},
		[]string{"outcome"},
	)

	compressionRatio = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compression_ratio",
			Help:      "Compressed size divided by original size.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	requestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served.",
		},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IncUpload counts an upload reaching the given status.
func IncUpload(status string) {
	uploadsTotal.WithLabelValues(status).Inc()
}

// IncUploadFailure counts a failed upload by its stored error code.
func IncUploadFailure(code string) {
	uploadFailures.WithLabelValues(code).Inc()
}

// ObserveUploadDuration records how long an ingestion run took.
func ObserveUploadDuration(d time.Duration) {
	uploadDuration.Observe(d.Seconds())
}

// IncAIAttempt counts a provider call outcome (success, transient, fatal).
func IncAIAttempt(outcome string) {
	aiAttempts.WithLabelValues(outcome).Inc()
}

// ObserveCompressionRatio records the stored-size ratio of an upload.
func ObserveCompressionRatio(ratio float64) {
	compressionRatio.Observe(ratio)
}

// GinMiddleware records per-route latency and request counts.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestsInFlight.Inc()
		defer requestsInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestDuration.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus exposition format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
