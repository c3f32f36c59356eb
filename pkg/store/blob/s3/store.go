// Package s3 provides an Amazon S3 (or S3-compatible) blob store.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/anvarov/drivebox/pkg/store/blob"
)

// S3BlobStore implements blob.Store on Amazon S3 or S3-compatible
// storage (MinIO, Localstack, Cubbit DS3).
//
// Object keys are the blob keys with an optional fixed prefix, so the
// bucket remains human-readable and inspectable. Downloads never flow
// through this process: URLFor hands out presigned GET URLs and the
// client talks to S3 directly.
//
// Thread Safety:
// The AWS SDK clients are safe for concurrent use; the store adds no
// state of its own.
type S3BlobStore struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	keyPrefix string
}

// S3BlobStoreConfig contains configuration for creating an S3 blob
// store.
type S3BlobStoreConfig struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the S3 bucket name. The bucket must already exist.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys.
	// Example: "drivebox/" results in keys like "drivebox/abc123".
	KeyPrefix string
}

// NewS3BlobStore creates an S3-backed blob store and verifies bucket
// access. The bucket must already exist.
func NewS3BlobStore(ctx context.Context, cfg S3BlobStoreConfig) (*S3BlobStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
	}

	return &S3BlobStore{
		client:    cfg.Client,
		presigner: s3.NewPresignClient(cfg.Client),
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// objectKey returns the full S3 object key for a blob key.
func (s *S3BlobStore) objectKey(key string) string {
	if s.keyPrefix != "" {
		return s.keyPrefix + key
	}
	return key
}

// Put uploads an object, replacing any existing object under key.
func (s *S3BlobStore) Put(ctx context.Context, key string, data io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(key)),
		Body:          data,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %q: %w", key, err)
	}
	return nil
}

// Delete removes an object. S3 DeleteObject is idempotent, so deleting
// a missing key succeeds.
func (s *S3BlobStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

// Exists reports whether an object is stored under key.
func (s *S3BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object %q: %w", key, err)
	}
	return true, nil
}

// URLFor returns a presigned GET URL for the object under key, valid
// for expiry. The Content-Disposition override makes browsers save the
// download under the file's title rather than its opaque blob key.
func (s *S3BlobStore) URLFor(ctx context.Context, key string, filename string, expiry time.Duration) (string, error) {
	exists, err := s.Exists(ctx, key)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", blob.ErrNotFound
	}

	disposition := fmt.Sprintf("attachment; filename=%q", filename)
	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(s.bucket),
		Key:                        aws.String(s.objectKey(key)),
		ResponseContentDisposition: aws.String(disposition),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign download for %q: %w", key, err)
	}

	return presigned.URL, nil
}

// Healthcheck verifies the bucket is still reachable.
func (s *S3BlobStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("failed to reach bucket %q: %w", s.bucket, err)
	}
	return nil
}

// Close is a no-op; the S3 client holds no connections that need
// explicit shutdown.
func (s *S3BlobStore) Close() error {
	return nil
}
