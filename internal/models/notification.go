package models

import "time"

// NotificationType mirrors the severity levels dashboards render.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is an append-only log entry scoped to a recipient role.
// Only the read flag is ever mutated after creation.
type Notification struct {
	ID         string           `db:"id" json:"id"`
	Type       NotificationType `db:"type" json:"type"`
	Title      string           `db:"title" json:"title"`
	Message    string           `db:"message" json:"message"`
	TargetRole UserRole         `db:"target_role" json:"target_role"`
	Read       bool             `db:"read" json:"read"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter constrains notification listing queries.
type NotificationFilter struct {
	TargetRole UserRole
	UnreadOnly bool
	Limit      int
	Offset     int
}
