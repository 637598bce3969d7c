package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lifeline-health/lifeline-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides
// lightweight snapshots for the admin dashboard.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
	publishedTotal   *prometheus.CounterVec
	unreadCacheHits  prometheus.Counter
	unreadCacheMiss  prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	transitionCount      uint64
	publishedCount       uint64
	unreadHitCount       uint64
	unreadMissCount      uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	transitionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "lifecycle_transitions_total",
		Help: "Total committed lifecycle transitions by entity and event",
	}, []string{"entity", "event"})

	publishedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_published_total",
		Help: "Total notifications published by target role",
	}, []string{"role"})

	unreadCacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unread_cache_hits_total",
		Help: "Total unread-count cache hits",
	})

	unreadCacheMiss := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "unread_cache_misses_total",
		Help: "Total unread-count cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, transitionsTotal, publishedTotal, unreadCacheHits, unreadCacheMiss, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		transitionsTotal: transitionsTotal,
		publishedTotal:   publishedTotal,
		unreadCacheHits:  unreadCacheHits,
		unreadCacheMiss:  unreadCacheMiss,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordTransition counts a committed lifecycle transition.
func (m *MetricsService) RecordTransition(entity string, event models.EventKind) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(entity, string(event)).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// RecordPublished counts a notification published to a role.
func (m *MetricsService) RecordPublished(role models.UserRole) {
	if m == nil {
		return
	}
	m.publishedTotal.WithLabelValues(string(role)).Inc()
	atomic.AddUint64(&m.publishedCount, 1)
}

// RecordUnreadCacheLookup tracks hit/miss outcomes of the unread-count cache.
func (m *MetricsService) RecordUnreadCacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.unreadCacheHits.Inc()
		atomic.AddUint64(&m.unreadHitCount, 1)
	} else {
		m.unreadCacheMiss.Inc()
		atomic.AddUint64(&m.unreadMissCount, 1)
	}
}

// Snapshot returns aggregated metrics for the admin stats endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	hits := atomic.LoadUint64(&m.unreadHitCount)
	misses := atomic.LoadUint64(&m.unreadMissCount)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	var hitRatio float64
	if total := hits + misses; total > 0 {
		hitRatio = float64(hits) / float64(total)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		TransitionsTotal:         atomic.LoadUint64(&m.transitionCount),
		NotificationsPublished:   atomic.LoadUint64(&m.publishedCount),
		UnreadCacheHitRatio:      hitRatio,
		UnreadCacheHits:          hits,
		UnreadCacheMisses:        misses,
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
