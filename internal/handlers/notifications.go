package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/notifications"
	"github.com/uniconnect/backend/internal/util"
)

// GetNotifications returns the caller's newest notifications
// GET /api/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	body, hit, err := h.notifications.List(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondSnapshot(c, body, hit)
}

// GetUnreadCount returns how many notifications the caller has not read
// GET /api/notifications/unread-count
func (h *Handlers) GetUnreadCount(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// MarkNotificationsRead marks every notification of the caller as read
// PUT /api/notifications/mark-read
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateNotification sends a notification from the caller
// POST /api/notifications
func (h *Handlers) CreateNotification(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		RecipientID string `json:"recipientId" binding:"required"`
		Type        string `json:"type" binding:"required"`
		Message     string `json:"message"`
		Link        string `json:"link"`
		RelatedID   string `json:"relatedId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	n, err := h.notifications.Create(c.Request.Context(), notifications.Request{
		RecipientID: req.RecipientID,
		SenderID:    userID,
		Type:        req.Type,
		Message:     req.Message,
		Link:        req.Link,
		RelatedID:   req.RelatedID,
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, n)
}
