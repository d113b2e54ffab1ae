package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/groups"
	"github.com/uniconnect/backend/internal/storage"
	"github.com/uniconnect/backend/internal/util"
)

type groupIDRequest struct {
	GroupID string `json:"groupId" binding:"required"`
}

// CreateGroup creates a group with the caller as its admin
// POST /api/groups
func (h *Handlers) CreateGroup(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	in := groups.CreateInput{
		Name:        strings.TrimSpace(c.PostForm("name")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Privacy:     c.PostForm("privacy"),
	}

	icon, err := h.uploadFormFile(c, "image", storage.FolderGroupIcons, user.ID)
	if err != nil {
		respondUploadError(c, err)
		return
	}
	if icon != nil {
		in.Image = icon.URL
	}

	group, err := h.groups.Create(c.Request.Context(), user, in)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

// GetGroups lists the groups visible to the caller
// GET /api/groups
func (h *Handlers) GetGroups(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	body, hit, err := h.groups.List(c.Request.Context(), user)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondSnapshot(c, body, hit)
}

// GetGroup returns one group with members populated
// GET /api/groups/:groupId
func (h *Handlers) GetGroup(c *gin.Context) {
	body, hit, err := h.groups.Get(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondSnapshot(c, body, hit)
}

// RequestJoinGroup files a join request
// POST /api/groups/join
func (h *Handlers) RequestJoinGroup(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req groupIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.groups.RequestJoin(c.Request.Context(), user, req.GroupID); err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request sent successfully", "groupId": req.GroupID})
}

// JoinPublicGroup joins a group without approval
// POST /api/groups/join-public
func (h *Handlers) JoinPublicGroup(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var req groupIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.groups.JoinPublic(c.Request.Context(), user, req.GroupID); err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Joined successfully"})
}

// HandleJoinRequest accepts or rejects a pending join request
// POST /api/groups/handle-request
func (h *Handlers) HandleJoinRequest(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	var in groups.HandleRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	outcome, err := h.groups.HandleRequest(c.Request.Context(), user, in)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request " + outcome + " successfully"})
}

// GetJoinRequests lists pending requesters, admins only
// GET /api/groups/:groupId/requests
func (h *Handlers) GetJoinRequests(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	body, hit, err := h.groups.Requests(c.Request.Context(), user, c.Param("groupId"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondSnapshot(c, body, hit)
}

// GetGroupMessages returns the group's history oldest first
// GET /api/groups/:groupId/messages
func (h *Handlers) GetGroupMessages(c *gin.Context) {
	body, hit, err := h.groups.Messages(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	util.RespondSnapshot(c, body, hit)
}

// GetGroupMedia returns messages carrying files, newest first
// GET /api/groups/:groupId/media
func (h *Handlers) GetGroupMedia(c *gin.Context) {
	media, err := h.groups.Media(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}

// LeaveGroup removes the caller from a group
// POST /api/groups/:groupId/leave
func (h *Handlers) LeaveGroup(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if err := h.groups.Leave(c.Request.Context(), user, c.Param("groupId")); err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Left group"})
}

// DeleteGroup removes a group and its history, admins only
// DELETE /api/groups/:groupId
func (h *Handlers) DeleteGroup(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	if err := h.groups.Delete(c.Request.Context(), user, c.Param("groupId")); err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted successfully"})
}
