package util

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/uniconnect/backend/internal/models"
)

// AttachmentType maps a filename to the chat attachment kind
func AttachmentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg":
		return models.FileTypeImage
	case ".mp4", ".webm", ".mov":
		return models.FileTypeVideo
	case ".pdf":
		return models.FileTypePDF
	case ".ppt", ".pptx":
		return models.FileTypePPT
	}
	return models.FileTypeNone
}

// IsImageFile checks if a filename has an image extension
func IsImageFile(filename string) bool {
	return AttachmentType(filename) == models.FileTypeImage
}

// ValidateFilename checks if a display filename is valid
// Filename is required and cannot contain directory separators
// Must be <= 255 chars
func ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename is required")
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		return errors.New("filename cannot contain directory paths")
	}
	if len(filename) > 255 {
		return errors.New("filename too long (max 255 characters)")
	}
	return nil
}
