package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/logger"
	"github.com/uniconnect/backend/internal/storage"
	"github.com/uniconnect/backend/internal/util"
	"go.uber.org/zap"
)

// UploadFile stores a chat attachment and returns its location
// POST /api/upload
func (h *Handlers) UploadFile(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		util.RespondBadRequest(c, "No file provided")
		return
	}
	if err := util.ValidateFilename(fh.Filename); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.storeFile(c, fh, storage.FolderChatFiles, userID)
	if err != nil {
		respondUploadError(c, err)
		return
	}

	logger.Log.Info("File uploaded",
		logger.WithUserID(userID),
		zap.String("public_id", result.PublicID),
		zap.Int64("size", result.Size),
	)
	c.JSON(http.StatusOK, result)
}

func respondUploadError(c *gin.Context, err error) {
	switch {
	case stderrors.Is(err, storage.ErrTooLarge):
		util.RespondWithAPIError(c, apperrors.PayloadTooLarge("File too large (max 10MB)"))
	case stderrors.Is(err, storage.ErrNotConfigured):
		util.RespondWithAPIError(c, apperrors.ServiceUnavailable("File storage"))
	default:
		logger.Log.Error("Upload failed", zap.Error(err))
		util.RespondInternalError(c, "Upload failed")
	}
}
