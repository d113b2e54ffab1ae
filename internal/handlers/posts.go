package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/dto"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/notifications"
	"github.com/uniconnect/backend/internal/storage"
	"github.com/uniconnect/backend/internal/util"
	"go.uber.org/zap"
)

// GetPosts returns every post, newest first
// GET /api/dashboard/posts
func (h *Handlers) GetPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context())
	if err != nil {
		util.RespondError(c, err)
		return
	}

	out := make([]dto.PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, dto.ToPostResponse(p))
	}
	c.JSON(http.StatusOK, out)
}

// CreatePost creates a post with optional image
// POST /api/dashboard/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	text := strings.TrimSpace(c.PostForm("text"))
	upload, err := h.uploadFormFile(c, "file", storage.FolderPosts, user.ID)
	if err != nil {
		respondUploadError(c, err)
		return
	}
	if text == "" && upload == nil {
		util.RespondBadRequest(c, "Post needs text or an image")
		return
	}

	post := &models.Post{UserID: user.ID, Text: text}
	if upload != nil {
		post.Image = upload.URL
	}

	ctx := c.Request.Context()
	if err := h.posts.CreatePost(ctx, post); err != nil {
		util.RespondError(c, err)
		return
	}

	created, err := h.posts.GetPost(ctx, post.ID)
	if util.HandleDBError(c, err, "Post") {
		return
	}
	c.JSON(http.StatusCreated, dto.ToPostResponse(created))
}

// ToggleLike likes or unlikes a post and returns the liker ids
// PUT /api/dashboard/posts/:id/like
func (h *Handlers) ToggleLike(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	ctx := c.Request.Context()

	post, err := h.posts.GetPost(ctx, postID)
	if util.HandleDBError(c, err, "Post") {
		return
	}

	liked, err := h.posts.ToggleLike(ctx, postID, user.ID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	if liked && post.UserID != user.ID {
		h.notify(ctx, notifications.Request{
			RecipientID: post.UserID,
			SenderID:    user.ID,
			Type:        models.NotificationLike,
			Message:     user.Name + " liked your post",
			Link:        "/dashboard",
			RelatedID:   postID,
		})
	}

	likes, err := h.posts.GetLikerIDs(ctx, postID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

// AddComment comments on a post and returns the post's comments
// POST /api/dashboard/posts/:id/comment
func (h *Handlers) AddComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req struct {
		Text string `json:"text" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		util.RespondWithAPIError(c, apperrors.MissingField("text"))
		return
	}

	ctx := c.Request.Context()
	post, err := h.posts.GetPost(ctx, postID)
	if util.HandleDBError(c, err, "Post") {
		return
	}

	comment := &models.PostComment{PostID: postID, UserID: user.ID, Text: text}
	if err := h.posts.AddComment(ctx, comment); err != nil {
		util.RespondError(c, err)
		return
	}

	if post.UserID != user.ID {
		h.notify(ctx, notifications.Request{
			RecipientID: post.UserID,
			SenderID:    user.ID,
			Type:        models.NotificationComment,
			Message:     user.Name + " commented on your post",
			Link:        "/dashboard",
			RelatedID:   postID,
		})
	}

	comments, err := h.posts.GetComments(ctx, postID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToCommentResponses(comments))
}

// notify creates a notification without failing the request
func (h *Handlers) notify(ctx context.Context, req notifications.Request) {
	if _, err := h.notifications.Create(ctx, req); err != nil {
		logger.Log.Warn("Failed to create notification",
			zap.String("type", req.Type),
			logger.WithUserID(req.RecipientID),
			zap.Error(err),
		)
	}
}
