package models

import "time"

// SystemMetrics is a lightweight aggregate snapshot served to the admin
// dashboard without scraping Prometheus.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	TransitionsTotal         uint64    `json:"transitions_total"`
	NotificationsPublished   uint64    `json:"notifications_published"`
	UnreadCacheHitRatio      float64   `json:"unread_cache_hit_ratio"`
	UnreadCacheHits          uint64    `json:"unread_cache_hits"`
	UnreadCacheMisses        uint64    `json:"unread_cache_misses"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
