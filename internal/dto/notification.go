package dto

import "github.com/lifeline-health/lifeline-api/internal/models"

// NotificationQuery mirrors supported notification listing filters.
type NotificationQuery struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// UnreadCountResponse is returned by the unread badge endpoint.
type UnreadCountResponse struct {
	Role   models.UserRole `json:"role"`
	Unread int64           `json:"unread"`
}

// MarkAllReadResponse reports how many notifications were flipped.
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
