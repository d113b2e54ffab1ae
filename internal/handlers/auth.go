package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/dto"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/util"
	"go.uber.org/zap"
)

// Register creates an unverified account and emails a verification code
// POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	logger.Log.Info("User registered", logger.WithUserID(user.ID), zap.String("institute", user.Institute))
	c.JSON(http.StatusCreated, gin.H{
		"message": "Code sent",
		"userId":  user.ID,
	})
}

// Verify checks the emailed code and logs the user in
// POST /api/auth/verify
func (h *Handlers) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Verify(c.Request.Context(), req)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  dto.ToUserResponse(resp.User),
		"token": resp.Token,
	})
}

// Login authenticates with email and password
// POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	u := resp.User
	c.JSON(http.StatusOK, gin.H{
		"_id":            u.ID,
		"name":           u.Name,
		"username":       u.Username,
		"email":          u.Email,
		"institute":      u.Institute,
		"role":           u.Role,
		"isVerified":     u.IsVerified,
		"profilePicture": u.ProfilePicture,
		"token":          resp.Token,
		"expiresAt":      resp.ExpiresAt,
	})
}

// Me returns the authenticated user
// GET /api/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}
