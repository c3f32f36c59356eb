//go:build integration
// +build integration

package s3

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/require"

	"github.com/anvarov/drivebox/pkg/store/blob"
)

// TestS3BlobStore_Integration runs the blob store against a real
// S3-compatible service (Localstack).
//
// Prerequisites:
//   - Localstack running on localhost:4566
//   - Run with: go test -tags=integration ./pkg/store/blob/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3BlobStore_Integration(t *testing.T) {
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true // Required for Localstack
	})

	bucketName := "drivebox-test-bucket"

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	require.NoError(t, err)

	store, err := NewS3BlobStore(ctx, S3BlobStoreConfig{
		Client:    client,
		Bucket:    bucketName,
		KeyPrefix: "blobs/",
	})
	require.NoError(t, err)
	defer store.Close()

	t.Run("PutExistsDelete", func(t *testing.T) {
		key := "integration/roundtrip.txt"
		body := "hello from the integration test"

		err := store.Put(ctx, key, strings.NewReader(body), int64(len(body)))
		require.NoError(t, err)

		exists, err := store.Exists(ctx, key)
		require.NoError(t, err)
		require.True(t, exists)

		require.NoError(t, store.Delete(ctx, key))

		exists, err = store.Exists(ctx, key)
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("DeleteMissingKeySucceeds", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, "integration/never-existed"))
	})

	t.Run("PresignedDownload", func(t *testing.T) {
		key := "integration/download.txt"
		body := "presigned content"

		err := store.Put(ctx, key, strings.NewReader(body), int64(len(body)))
		require.NoError(t, err)
		defer store.Delete(ctx, key)

		url, err := store.URLFor(ctx, key, "report.txt", 5*time.Minute)
		require.NoError(t, err)

		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Contains(t, resp.Header.Get("Content-Disposition"), "report.txt")
	})

	t.Run("URLForMissingKey", func(t *testing.T) {
		_, err := store.URLFor(ctx, "integration/missing", "x.txt", time.Minute)
		require.ErrorIs(t, err, blob.ErrNotFound)
	})

	t.Run("Healthcheck", func(t *testing.T) {
		require.NoError(t, store.Healthcheck(ctx))
	})
}
