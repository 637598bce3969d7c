package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-health/lifeline-api/internal/dto"
	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
	"github.com/lifeline-health/lifeline-api/pkg/response"
)

type notificationHub interface {
	List(ctx context.Context, role models.UserRole, query dto.NotificationQuery) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string, role models.UserRole) error
	MarkAllRead(ctx context.Context, role models.UserRole) (int64, error)
	UnreadCount(ctx context.Context, role models.UserRole) (int64, error)
}

// NotificationHandler exposes the role-scoped notification feed.
type NotificationHandler struct {
	hub notificationHub
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(hub notificationHub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// List godoc
// @Summary List notifications for the acting role
// @Tags Notifications
// @Produce json
// @Param unread query bool false "Only unread"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, offset := paginationParams(c)
	query := dto.NotificationQuery{
		UnreadOnly: c.Query("unread") == "true",
		Limit:      limit,
		Offset:     offset,
	}
	notifications, err := h.hub.List(c.Request.Context(), claims.Role, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags Notifications
// @Produce json
// @Param id path string true "Notification ID"
// @Success 204 "No Content"
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.hub.MarkRead(c.Request.Context(), c.Param("id"), claims.Role); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead godoc
// @Summary Mark every notification for the acting role as read
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	updated, err := h.hub.MarkAllRead(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MarkAllReadResponse{Updated: updated}, nil)
}

// UnreadCount godoc
// @Summary Unread notification badge for the acting role
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	count, err := h.hub.UnreadCount(c.Request.Context(), claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UnreadCountResponse{Role: claims.Role, Unread: count}, nil)
}
