package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"supportdesk/internal/repositories"
)

// NotificationHandler serves the notifications view.
type NotificationHandler struct {
	notifications repositories.NotificationRepository
}

// NewNotificationHandler builds a NotificationHandler.
func NewNotificationHandler(notifications repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListNotifications returns the authenticated user's notifications, newest
// first. ?unread=true restricts the list to unread ones.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID := c.GetString("userID")
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notifications.ListForUser(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkNotificationRead acknowledges one notification.
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	userID := c.GetString("userID")
	id := c.Param("notification_id")

	err := h.notifications.MarkRead(c.Request.Context(), id, userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not mark notification read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "read": true})
}
