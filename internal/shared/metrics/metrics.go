package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by route and status class",
	}, []string{"route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	analysisTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analysis_total",
		Help: "Screenshot analyses by kind and outcome",
	}, []string{"kind", "outcome"})

	analysisDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "analysis_duration_seconds",
		Help:    "Upstream extraction latency by kind",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"kind"})

	dashboardOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_ops_total",
		Help: "Persistence gateway operations by op and outcome",
	}, []string{"op", "outcome"})

	cleanupFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dashboard_cleanup_failures_total",
		Help: "Swallowed failures of the secondary-collection delete",
	})
)

func init() {
	registry.MustRegister(
		httpRequests,
		httpDuration,
		analysisTotal,
		analysisDuration,
		dashboardOps,
		cleanupFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Registry exposes the private registry, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveAnalysis records one extraction attempt.
func ObserveAnalysis(kind, outcome string, d time.Duration) {
	analysisTotal.WithLabelValues(kind, outcome).Inc()
	analysisDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// IncDashboardOp counts a gateway operation.
func IncDashboardOp(op, outcome string) {
	dashboardOps.WithLabelValues(op, outcome).Inc()
}

// IncCleanupFailure counts a swallowed secondary delete failure.
func IncCleanupFailure() {
	cleanupFailures.Inc()
}

// Middleware records request counts and latency keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, statusBucket(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Outcome maps an error to a metric label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
