package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/uniconnect/backend/internal/storage"
)

// ObjectStore is an in-memory S3API
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewObjectStore creates an empty object store
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

func (o *ObjectStore) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	o.objects[aws.ToString(params.Key)] = data
	o.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (o *ObjectStore) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	o.mu.Lock()
	delete(o.objects, aws.ToString(params.Key))
	o.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (o *ObjectStore) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, nil
}

// Count returns the number of stored objects
func (o *ObjectStore) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.objects)
}

// NewUploader returns an S3Uploader writing into store, with public URLs
// under baseURL.
func NewUploader(store *ObjectStore, baseURL string) *storage.S3Uploader {
	return storage.NewS3UploaderWithClient(store, "us-east-1", "uniconnect-test", baseURL)
}
