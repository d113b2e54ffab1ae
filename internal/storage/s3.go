package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/uniconnect/backend/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// MaxUploadSize is the largest accepted file (10MB)
const MaxUploadSize = 10 << 20

// Folders group uploads by what they are attached to
const (
	FolderChatFiles  = "uni_connect_chat_files"
	FolderPosts      = "posts"
	FolderGroupIcons = "group_icons"
	FolderAvatars    = "avatars"
)

// S3API is the subset of the S3 client used by S3Uploader
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader streams files to AWS S3 and returns their public URL
type S3Uploader struct {
	client  S3API
	bucket  string
	region  string
	baseURL string
	now     func() time.Time
}

// UploadResult describes a stored file
type UploadResult struct {
	URL              string `json:"url"`
	PublicID         string `json:"public_id"`
	Format           string `json:"format"`
	ResourceType     string `json:"resource_type"`
	OriginalFilename string `json:"original_filename"`
	Size             int64  `json:"bytes"`
}

// NewS3Uploader creates a new S3 uploader
func NewS3Uploader(ctx context.Context, region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return NewS3UploaderWithClient(s3.NewFromConfig(cfg), region, bucket, baseURL), nil
}

// NewS3UploaderWithClient wraps an existing client
func NewS3UploaderWithClient(client S3API, region, bucket, baseURL string) *S3Uploader {
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

// Upload streams body to folder/{year}/{month}/{uuid}{ext}
func (u *S3Uploader) Upload(ctx context.Context, body io.Reader, size int64, in UploadInput) (*UploadResult, error) {
	if size > MaxUploadSize {
		return nil, ErrTooLarge
	}

	extension := strings.ToLower(filepath.Ext(in.Filename))
	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = getContentType(extension)
	}

	now := u.now()
	publicID := path.Join(in.Folder, fmt.Sprintf("%d/%02d", now.Year(), now.Month()), uuid.New().String())
	key := publicID + extension

	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),

		// Uploaded files are immutable
		CacheControl: aws.String("max-age=31536000"),

		Metadata: map[string]string{
			"owner-id":          in.OwnerID,
			"original-filename": in.Filename,
			"upload-timestamp":  now.Format(time.RFC3339),
		},
	}

	ctx, span := telemetry.TraceExternalCall(ctx, "s3", "put_object",
		attribute.String("s3.key", key),
		attribute.Int64("s3.size", size),
	)
	defer span.End()

	if _, err := u.client.PutObject(ctx, input); err != nil {
		telemetry.RecordExternalCallError(span, err, 0)
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:              fmt.Sprintf("%s/%s", u.baseURL, key),
		PublicID:         publicID,
		Format:           strings.TrimPrefix(extension, "."),
		ResourceType:     resourceType(contentType),
		OriginalFilename: in.Filename,
		Size:             size,
	}, nil
}

// DeleteFile deletes a file from S3
func (u *S3Uploader) DeleteFile(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}

// getContentType returns the MIME type for a file extension
func getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".pdf":
		return "application/pdf"
	case ".ppt":
		return "application/vnd.ms-powerpoint"
	case ".pptx":
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/octet-stream"
	}
}

// resourceType buckets a MIME type into image, video or raw
func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return "raw"
	}
}
