package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
	"github.com/lifeline-health/lifeline-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string, role models.UserRole) error
	MarkAllRead(ctx context.Context, role models.UserRole) (int64, error)
	UnreadCount(ctx context.Context, role models.UserRole) (int64, error)
}

type notificationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// NotificationHub owns the role-scoped notification log. Persistence is
// synchronous so callers observe their notifications immediately; live
// fan-out over Redis pub/sub happens on a background queue and is best effort.
type NotificationHub struct {
	store   notificationStore
	cache   notificationCache
	metrics *MetricsService
	logger  *zap.Logger

	channel  string
	cacheTTL time.Duration
	queue    *jobs.Queue
}

// NotificationHubConfig tunes delivery behaviour.
type NotificationHubConfig struct {
	Channel           string
	UnreadCacheTTL    time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

// NewNotificationHub constructs the hub and its delivery queue.
func NewNotificationHub(store notificationStore, cache notificationCache, metrics *MetricsService, logger *zap.Logger, cfg NotificationHubConfig) *NotificationHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Channel == "" {
		cfg.Channel = "lifeline:notifications"
	}
	if cfg.UnreadCacheTTL <= 0 {
		cfg.UnreadCacheTTL = 5 * time.Minute
	}
	hub := &NotificationHub{
		store:    store,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		channel:  cfg.Channel,
		cacheTTL: cfg.UnreadCacheTTL,
	}
	hub.queue = jobs.NewQueue("notification-delivery", hub.deliver, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return hub
}

// Start launches the delivery workers.
func (h *NotificationHub) Start(ctx context.Context) {
	h.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (h *NotificationHub) Stop() {
	h.queue.Stop()
}

// Publish persists a notification, refreshes the unread badge cache, and
// schedules live delivery. The write must succeed before anything else runs;
// a notification that cannot be persisted is never delivered.
func (h *NotificationHub) Publish(ctx context.Context, notification *models.Notification) error {
	if notification == nil {
		return appErrors.Clone(appErrors.ErrValidation, "notification payload is required")
	}
	if !models.ValidRole(notification.TargetRole) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown target role: %s", notification.TargetRole))
	}
	if err := h.store.Create(ctx, notification); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist notification")
	}
	h.metrics.RecordPublished(notification.TargetRole)
	h.invalidateUnread(ctx, notification.TargetRole)

	if err := h.queue.Enqueue(jobs.Job{ID: notification.ID, Type: "notification", Payload: *notification}); err != nil {
		h.logger.Warn("live delivery skipped", zap.String("notification_id", notification.ID), zap.Error(err))
	}
	return nil
}

// List returns the actor's notification feed.
func (h *NotificationHub) List(ctx context.Context, role models.UserRole, query dto.NotificationQuery) ([]models.Notification, error) {
	if !models.ValidRole(role) {
		return nil, appErrors.ErrForbidden
	}
	notifications, err := h.store.List(ctx, models.NotificationFilter{
		TargetRole: role,
		UnreadOnly: query.UnreadOnly,
		Limit:      query.Limit,
		Offset:     query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// MarkRead flips one notification in the actor's feed.
func (h *NotificationHub) MarkRead(ctx context.Context, id string, role models.UserRole) error {
	if err := h.store.MarkRead(ctx, id, role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	h.invalidateUnread(ctx, role)
	return nil
}

// MarkAllRead flips every unread notification in the actor's feed and reports
// how many changed. Zero is a valid outcome, not an error.
func (h *NotificationHub) MarkAllRead(ctx context.Context, role models.UserRole) (int64, error) {
	updated, err := h.store.MarkAllRead(ctx, role)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	if updated > 0 {
		h.invalidateUnread(ctx, role)
	}
	return updated, nil
}

// UnreadCount returns the unread badge value for a role, cache-aside.
func (h *NotificationHub) UnreadCount(ctx context.Context, role models.UserRole) (int64, error) {
	key := unreadCacheKey(role)
	if h.cache != nil {
		var cached int64
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			h.metrics.RecordUnreadCacheLookup(true)
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			h.logger.Warn("unread cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		h.metrics.RecordUnreadCacheLookup(false)
	}

	count, err := h.store.UnreadCount(ctx, role)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, count, h.cacheTTL); err != nil {
			h.logger.Warn("unread cache store failed", zap.String("key", key), zap.Error(err))
		}
	}
	return count, nil
}

func (h *NotificationHub) invalidateUnread(ctx context.Context, role models.UserRole) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Delete(ctx, unreadCacheKey(role)); err != nil {
		h.logger.Warn("unread cache invalidation failed", zap.String("role", string(role)), zap.Error(err))
	}
}

func (h *NotificationHub) deliver(ctx context.Context, job jobs.Job) error {
	if h.cache == nil {
		return nil
	}
	return h.cache.Publish(ctx, h.channel, job.Payload)
}

func unreadCacheKey(role models.UserRole) string {
	return "notifications:unread:" + string(role)
}
