package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/dto"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/notifications"
	"github.com/uniconnect/backend/internal/repository"
	"github.com/uniconnect/backend/internal/util"
)

// SuggestionLimit caps the discover list
const SuggestionLimit = 20

// Connect sends a connection request
// POST /api/dashboard/connect
func (h *Handlers) Connect(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ReceiverID string `json:"receiverId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if req.ReceiverID == user.ID {
		util.RespondBadRequest(c, "Cannot connect to yourself")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.users.GetUser(ctx, req.ReceiverID); util.HandleDBError(c, err, "User") {
		return
	}

	existing, err := h.connections.FindBetween(ctx, user.ID, req.ReceiverID)
	switch {
	case err == nil:
		switch existing.Status {
		case models.ConnectionPending:
			util.RespondWithAPIError(c, apperrors.Conflict("Request already pending"))
		case models.ConnectionAccepted:
			util.RespondWithAPIError(c, apperrors.Conflict("Already connected"))
		default:
			util.RespondBadRequest(c, "Cannot send request")
		}
		return
	case !stderrors.Is(err, repository.ErrNotFound):
		util.RespondError(c, err)
		return
	}

	conn := &models.Connection{RequesterID: user.ID, RecipientID: req.ReceiverID}
	if err := h.connections.CreateConnection(ctx, conn); err != nil {
		util.RespondError(c, err)
		return
	}

	h.notify(ctx, notifications.Request{
		RecipientID: req.ReceiverID,
		SenderID:    user.ID,
		Type:        models.NotificationConnectionRequest,
		Message:     user.Name + " sent you a connection request",
		Link:        "/network",
		RelatedID:   conn.ID,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Request sent"})
}

// RespondToConnection accepts or rejects a pending request addressed to the caller
// POST /api/dashboard/network/respond
func (h *Handlers) RespondToConnection(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		ConnectionID string `json:"connectionId" binding:"required"`
		Action       string `json:"action" binding:"required,oneof=accept reject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	conn, err := h.connections.GetConnection(ctx, req.ConnectionID)
	if stderrors.Is(err, repository.ErrNotFound) {
		util.RespondNotFound(c, "Request")
		return
	}
	if err != nil {
		util.RespondError(c, err)
		return
	}
	if conn.RecipientID != user.ID {
		util.RespondForbidden(c, "Not authorized")
		return
	}

	if req.Action == "reject" {
		if err := h.connections.DeleteConnection(ctx, conn.ID); err != nil {
			util.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Request rejected"})
		return
	}

	if conn.Status != models.ConnectionPending {
		util.RespondBadRequest(c, "Request is not pending")
		return
	}
	if err := h.connections.SetStatus(ctx, conn.ID, models.ConnectionAccepted); err != nil {
		util.RespondError(c, err)
		return
	}

	h.notify(ctx, notifications.Request{
		RecipientID: conn.RequesterID,
		SenderID:    user.ID,
		Type:        models.NotificationConnectionAccepted,
		Message:     user.Name + " accepted your connection request",
		Link:        "/network",
		RelatedID:   conn.ID,
	})

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Request accepted"})
}

// GetNetwork lists pending invitations and accepted connections
// GET /api/dashboard/network
func (h *Handlers) GetNetwork(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	pending, err := h.connections.ListPendingFor(ctx, userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	accepted, err := h.connections.ListAccepted(ctx, userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	resp := dto.NetworkResponse{
		Invitations: make([]dto.InvitationResponse, 0, len(pending)),
		Connections: make([]*dto.UserSummary, 0, len(accepted)),
	}
	for _, conn := range pending {
		resp.Invitations = append(resp.Invitations, dto.InvitationResponse{
			ID:   conn.ID,
			User: dto.ToUserSummary(conn.Requester),
		})
	}
	for _, conn := range accepted {
		other := conn.Recipient
		if conn.RecipientID == userID {
			other = conn.Requester
		}
		resp.Connections = append(resp.Connections, dto.ToUserSummary(other))
	}

	c.JSON(http.StatusOK, resp)
}

// GetSuggestions lists other users with the caller's relationship to each
// GET /api/dashboard/suggestions
func (h *Handlers) GetSuggestions(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	users, err := h.users.ListOtherUsers(ctx, userID, SuggestionLimit)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	conns, err := h.connections.ListInvolving(ctx, userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	status := make(map[string]string, len(conns))
	for _, conn := range conns {
		status[conn.Other(userID)] = conn.Status
	}

	out := make([]dto.SuggestionResponse, 0, len(users))
	for _, u := range users {
		s, ok := status[u.ID]
		if !ok {
			s = "none"
		}
		out = append(out, dto.SuggestionResponse{
			ID:        u.ID,
			Name:      u.Name,
			Institute: u.Institute,
			Headline:  u.Headline,
			Status:    s,
		})
	}
	c.JSON(http.StatusOK, out)
}
