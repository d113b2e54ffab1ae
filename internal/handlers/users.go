package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/dto"
	"github.com/uniconnect/backend/internal/repository"
	"github.com/uniconnect/backend/internal/util"
)

// GetUserByUsername returns a public profile
// GET /api/dashboard/u/:username
func (h *Handlers) GetUserByUsername(c *gin.Context) {
	username := c.Param("username")

	user, err := h.users.GetUserByUsername(c.Request.Context(), username)
	if util.HandleDBError(c, err, "User") {
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// UpdateProfile changes the caller's editable profile fields. Anything outside
// UpdateProfileRequest is ignored.
// PUT /api/dashboard/user/profile
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		existing, err := h.users.GetUserByUsername(ctx, username)
		if err == nil && existing.ID != userID {
			util.RespondBadRequest(c, "Username already taken")
			return
		}
		if err != nil && !stderrors.Is(err, repository.ErrNotFound) {
			util.RespondError(c, err)
			return
		}
		updates["username"] = username
	}
	if req.Institute != nil {
		updates["institute"] = *req.Institute
	}
	if req.Headline != nil {
		updates["headline"] = *req.Headline
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.ProfilePicture != nil {
		updates["profile_picture"] = *req.ProfilePicture
	}
	if req.Badges != nil {
		updates["badges"] = req.Badges
	}

	if len(updates) > 0 {
		if err := h.users.UpdateFields(ctx, userID, updates); err != nil {
			util.RespondError(c, err)
			return
		}
	}

	user, err := h.users.GetUser(ctx, userID)
	if util.HandleDBError(c, err, "User") {
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
