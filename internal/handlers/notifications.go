package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldsight/fieldsight/internal/services"
	apperrors "github.com/fieldsight/fieldsight/pkg/errors"
	"github.com/fieldsight/fieldsight/pkg/response"
)

// NotificationHandler exposes the persisted notification channel.
type NotificationHandler struct {
	service *services.NotificationService
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List returns the current user's notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	h.listForUser(c, currentUserID(c), false)
}

// ListForUser returns notifications for the user named in the path.
func (h *NotificationHandler) ListForUser(c *gin.Context) {
	h.listForUser(c, strings.TrimSpace(c.Param("id")), false)
}

// ListUnreadForUser returns unread notifications for the user named in
// the path, plus the unread count.
func (h *NotificationHandler) ListUnreadForUser(c *gin.Context) {
	h.listForUser(c, strings.TrimSpace(c.Param("id")), true)
}

func (h *NotificationHandler) listForUser(c *gin.Context, userID string, unreadOnly bool) {
	if userID == "" {
		response.Error(c, apperrors.ErrUnauthorized)
		return
	}

	items, err := h.service.ListForUser(requestContext(c), services.ListNotificationsInput{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Limit:      parseIntQuery(c, "limit", 25),
		Offset:     parseIntQuery(c, "offset", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if unreadOnly {
		count, err := h.service.UnreadCount(requestContext(c), userID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"notifications": items, "unread_count": count})
		return
	}
	response.Success(c, http.StatusOK, items)
}

// MarkRead flags one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	dto, err := h.service.MarkRead(requestContext(c), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// MarkAllRead flags every unread notification for the current user.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	changed, err := h.service.MarkAllRead(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": changed})
}

// Delete removes one notification.
func (h *NotificationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(requestContext(c), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
