package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/dto"
	"github.com/uniconnect/backend/internal/util"
)

// GetDirectMessages returns the history between two users, oldest first.
// The caller must be one of them.
// GET /api/messages/:userA/:userB
func (h *Handlers) GetDirectMessages(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	a, b := c.Param("userA"), c.Param("userB")
	if userID != a && userID != b {
		util.RespondForbidden(c, "Not authorized to view this conversation")
		return
	}

	msgs, err := h.messages.ListDirectMessages(c.Request.Context(), a, b)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToMessageResponses(msgs))
}
