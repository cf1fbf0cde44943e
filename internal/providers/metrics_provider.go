package providers

import (
	"time"

	"github.com/borkya1/smart-gallery/internal/structures"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncUploadDecision(identityKind string, allowed bool)
	IncVisionFailures()
	ObserveUploadDuration(duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	uploadDecisions *prometheus.CounterVec
	visionFailures  prometheus.Counter
	uploadDuration  prometheus.Histogram
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncUploadDecision(identityKind string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.uploadDecisions.WithLabelValues(identityKind, decision).Inc()
}

func (m *MetricsProvider) IncVisionFailures() {
	m.visionFailures.Inc()
}

func (m *MetricsProvider) ObserveUploadDuration(duration time.Duration) {
	m.uploadDuration.Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
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

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartgallery_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartgallery_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartgallery_cache_hits_total",
			Help: "Total number of image cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartgallery_cache_misses_total",
			Help: "Total number of image cache misses",
		}),

		uploadDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartgallery_upload_decisions_total",
			Help: "Usage ledger decisions by identity kind",
		}, []string{"identity", "decision"}),

		visionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "smartgallery_vision_failures_total",
			Help: "Tag analysis calls that degraded to an empty tag list",
		}),

		uploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartgallery_upload_duration_seconds",
			Help:    "Duration of blob write plus tag analysis in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) IncUploadDecision(_ string, _ bool)               {}
func (n *noopMetrics) IncVisionFailures()                               {}
func (n *noopMetrics) ObserveUploadDuration(_ time.Duration)            {}
