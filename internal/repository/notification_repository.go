package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lifeline-health/lifeline-api/internal/models"
)

// NotificationRepository persists the append-only notification log.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new notification row.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, type, title, message, target_role, read, created_at)
	VALUES (:id, :type, :title, :message, :target_role, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// List returns notifications matching the filter (newest first).
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT id, type, title, message, target_role, read, created_at FROM notifications`)

	conditions := make([]string, 0, 2)
	if filter.TargetRole != "" {
		args = append(args, filter.TargetRole)
		conditions = append(conditions, fmt.Sprintf("target_role = $%d", len(args)))
	}
	if filter.UnreadOnly {
		conditions = append(conditions, "read = false")
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flips a notification to read. The role guard keeps actors inside
// their own feed; re-reading an already-read notification is a harmless write.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, role models.UserRole) error {
	const query = `UPDATE notifications SET read = true WHERE id = $1 AND target_role = $2`
	result, err := r.db.ExecContext(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRowsAffected(result)
}

// MarkAllRead flips every unread notification for a role. Zero affected rows
// is not an error here; the operation is idempotent by design of the caller.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, role models.UserRole) (int64, error) {
	const query = `UPDATE notifications SET read = true WHERE target_role = $1 AND read = false`
	result, err := r.db.ExecContext(ctx, query, role)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check affected rows: %w", err)
	}
	return rows, nil
}

// UnreadCount counts unread notifications for a role.
func (r *NotificationRepository) UnreadCount(ctx context.Context, role models.UserRole) (int64, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE target_role = $1 AND read = false`
	var count int64
	if err := r.db.GetContext(ctx, &count, query, role); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}
