package storage

import (
	"context"
	"errors"
	"io"
)

// ErrTooLarge is returned for files over MaxUploadSize
var ErrTooLarge = errors.New("file exceeds upload size limit")

// ErrNotConfigured is returned when no storage backend is configured
var ErrNotConfigured = errors.New("storage not configured")

// UploadInput names and classifies an uploaded file
type UploadInput struct {
	Folder      string
	Filename    string
	ContentType string
	OwnerID     string
}

// Uploader stores files and returns their public location.
// This interface allows for easy mocking in tests
type Uploader interface {
	Upload(ctx context.Context, body io.Reader, size int64, in UploadInput) (*UploadResult, error)
}

// Ensure S3Uploader implements Uploader
var _ Uploader = (*S3Uploader)(nil)
