package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/anvarov/drivebox/internal/logger"
	"github.com/anvarov/drivebox/pkg/drive"
	"github.com/anvarov/drivebox/pkg/store/blob"
	blobMemory "github.com/anvarov/drivebox/pkg/store/blob/memory"
	blobS3 "github.com/anvarov/drivebox/pkg/store/blob/s3"
	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/anvarov/drivebox/pkg/store/namespace/badger"
	"github.com/anvarov/drivebox/pkg/store/namespace/memory"
	"github.com/anvarov/drivebox/pkg/store/namespace/postgres"
)

// CreateNamespaceStore creates a namespace store based on configuration.
//
// This factory function uses the Type field to determine which store
// implementation to create, then decodes the type-specific configuration
// from the corresponding map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": Uses pkg/store/namespace/memory (in-memory storage, ephemeral)
//   - "badger": Uses pkg/store/namespace/badger (BadgerDB storage, persistent)
//   - "postgres": Uses pkg/store/namespace/postgres (PostgreSQL storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Namespace store configuration
//
// Returns:
//   - namespace.Store: Initialized namespace store
//   - error: Configuration or initialization error
func CreateNamespaceStore(ctx context.Context, cfg *NamespaceConfig) (namespace.Store, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryNamespaceStore(ctx)
	case "badger":
		return createBadgerNamespaceStore(ctx, cfg.Badger)
	case "postgres":
		return createPostgresNamespaceStore(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown namespace store type: %q (supported: memory, badger, postgres)", cfg.Type)
	}
}

// createMemoryNamespaceStore creates an in-memory namespace store.
func createMemoryNamespaceStore(ctx context.Context) (namespace.Store, error) {
	// Check context before creating store
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return memory.NewMemoryStore(), nil
}

// createBadgerNamespaceStore creates a BadgerDB-backed persistent namespace store.
func createBadgerNamespaceStore(ctx context.Context, options map[string]any) (namespace.Store, error) {
	// Decode store-specific options
	var storeCfg badger.BadgerStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger namespace store options: %w", err)
	}

	// Validate required fields
	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger namespace store: db_path is required unless in_memory is set")
	}

	store, err := badger.NewBadgerStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger namespace store: %w", err)
	}

	return store, nil
}

// createPostgresNamespaceStore creates a PostgreSQL-backed namespace store.
func createPostgresNamespaceStore(ctx context.Context, options map[string]any) (namespace.Store, error) {
	// Decode store-specific options
	var storeCfg postgres.PostgresStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode postgres namespace store options: %w", err)
	}

	// Validate required fields
	if storeCfg.DSN == "" {
		return nil, fmt.Errorf("postgres namespace store: dsn is required")
	}

	store, err := postgres.NewPostgresStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres namespace store: %w", err)
	}

	return store, nil
}

// CreateBlobStore creates a blob store based on configuration.
//
// Supported types:
//   - "memory": Uses pkg/store/blob/memory (in-memory storage, ephemeral)
//   - "s3": Uses pkg/store/blob/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Blob store configuration
//
// Returns:
//   - blob.Store: Initialized blob store
//   - error: Configuration or initialization error
func CreateBlobStore(ctx context.Context, cfg *BlobConfig) (blob.Store, error) {
	switch cfg.Type {
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return blobMemory.NewMemoryBlobStore(), nil
	case "s3":
		return createS3BlobStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob store type: %q (supported: memory, s3)", cfg.Type)
	}
}

// createS3BlobStore creates an S3-backed blob store.
func createS3BlobStore(ctx context.Context, options map[string]any) (blob.Store, error) {
	// Define the configuration struct for the S3 blob store
	type S3BlobStoreOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	// Decode the options into the config struct
	var storeCfg S3BlobStoreOptions
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 blob store config: %w", err)
	}

	// Validate required fields
	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 blob store: bucket is required")
	}

	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 blob store: region is required")
	}

	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	var configOptions []func(*awsConfig.LoadOptions) error

	// Set region
	configOptions = append(configOptions, awsConfig.WithRegion(storeCfg.Region))

	// Set custom endpoint if provided (for MinIO, Localstack, etc.)
	if storeCfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               storeCfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Set credentials if provided, otherwise use default credential chain
	if storeCfg.AccessKeyID != "" && storeCfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			storeCfg.AccessKeyID,
			storeCfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Configure retries for better resilience against temporary S3 failures
	// Default to 10 retries if not specified (increased from AWS default of 3)
	maxRetries := storeCfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries // Retry for transient errors (502, 503, timeouts, etc.)
		})
	}))

	// Load AWS config
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Force path-style addressing for compatibility with MinIO/Localstack
		if storeCfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	// ========================================================================
	// Step 3: Create S3 Blob Store
	// ========================================================================

	store, err := blobS3.NewS3BlobStore(ctx, blobS3.S3BlobStoreConfig{
		Client:    client,
		Bucket:    storeCfg.Bucket,
		KeyPrefix: storeCfg.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 blob store: %w", err)
	}

	logger.Info("S3 blob store initialized: bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// CreateUserDirectory builds the user directory from the configured
// accounts.
//
// Every entry must carry a well-formed UUID; Validate enforces this, but
// the parse is still checked here so the factory stays safe to call with
// hand-built configs.
func CreateUserDirectory(users []UserConfig) (*drive.StaticUserDirectory, error) {
	dir := drive.NewStaticUserDirectory(nil)

	for i, user := range users {
		id, err := uuid.Parse(user.ID)
		if err != nil {
			return nil, fmt.Errorf("users[%d]: invalid id %q: %w", i, user.ID, err)
		}
		dir.Add(user.Email, id)
	}

	return dir, nil
}
