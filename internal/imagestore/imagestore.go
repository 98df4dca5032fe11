// Package imagestore resolves image references to bytes and uploads new
// images into the bucket the biometric backends expect them in. The
// enrollment and identification paths never touch pixel data; only the
// local biometric backend and the CLI upload path use this package.
package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/facegate/facegate/internal/fault"
)

// API is the subset of the S3 client this package uses directly; uploads
// go through the transfer manager instead.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store reads and writes image objects in a single bucket.
type Store struct {
	api      API
	uploader *manager.Uploader
	bucket   string
}

// NewStore creates a store over the given bucket. The uploader may be
// nil when only Fetch is needed.
func NewStore(api API, uploader *manager.Uploader, bucket string) *Store {
	return &Store{api: api, uploader: uploader, bucket: bucket}
}

// Bucket returns the bucket this store reads from.
func (s *Store) Bucket() string {
	return s.bucket
}

// Fetch downloads the object bytes for the given key.
func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeService, fmt.Sprintf("fetching image %s", key))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fault.Wrap(err, fault.CodeService, fmt.Sprintf("reading image %s", key))
	}
	return data, nil
}

// Upload stores the given bytes under key and returns once the upload
// has completed.
func (s *Store) Upload(ctx context.Context, key string, data []byte) error {
	if s.uploader == nil {
		return fault.New(fault.CodeInternal, "image store was created without an uploader")
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fault.Wrap(err, fault.CodeService, fmt.Sprintf("uploading image %s", key))
	}
	return nil
}
