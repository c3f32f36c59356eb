package config

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestCreateNamespaceStore_Memory(t *testing.T) {
	cfg := &NamespaceConfig{Type: "memory"}

	store, err := CreateNamespaceStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create memory namespace store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Healthcheck(context.Background()); err != nil {
		t.Errorf("Expected healthy store, got: %v", err)
	}
}

func TestCreateNamespaceStore_BadgerInMemory(t *testing.T) {
	cfg := &NamespaceConfig{
		Type:   "badger",
		Badger: map[string]any{"in_memory": true},
	}

	store, err := CreateNamespaceStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger namespace store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Healthcheck(context.Background()); err != nil {
		t.Errorf("Expected healthy store, got: %v", err)
	}
}

func TestCreateNamespaceStore_BadgerOnDisk(t *testing.T) {
	cfg := &NamespaceConfig{
		Type:   "badger",
		Badger: map[string]any{"db_path": t.TempDir()},
	}

	store, err := CreateNamespaceStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger namespace store: %v", err)
	}
	defer func() { _ = store.Close() }()
}

func TestCreateNamespaceStore_BadgerMissingPath(t *testing.T) {
	cfg := &NamespaceConfig{
		Type:   "badger",
		Badger: map[string]any{},
	}

	_, err := CreateNamespaceStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for badger store without db_path, got nil")
	}
	if !strings.Contains(err.Error(), "db_path") {
		t.Errorf("Expected db_path error, got: %v", err)
	}
}

func TestCreateNamespaceStore_PostgresMissingDSN(t *testing.T) {
	cfg := &NamespaceConfig{
		Type:     "postgres",
		Postgres: map[string]any{},
	}

	_, err := CreateNamespaceStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for postgres store without dsn, got nil")
	}
	if !strings.Contains(err.Error(), "dsn") {
		t.Errorf("Expected dsn error, got: %v", err)
	}
}

func TestCreateNamespaceStore_UnknownType(t *testing.T) {
	cfg := &NamespaceConfig{Type: "sqlite"}

	_, err := CreateNamespaceStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for unknown store type, got nil")
	}
}

func TestCreateBlobStore_Memory(t *testing.T) {
	cfg := &BlobConfig{Type: "memory"}

	store, err := CreateBlobStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create memory blob store: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Healthcheck(context.Background()); err != nil {
		t.Errorf("Expected healthy store, got: %v", err)
	}
}

func TestCreateBlobStore_S3MissingBucket(t *testing.T) {
	cfg := &BlobConfig{
		Type: "s3",
		S3:   map[string]any{"region": "us-east-1"},
	}

	_, err := CreateBlobStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for S3 store without bucket, got nil")
	}
	if !strings.Contains(err.Error(), "bucket") {
		t.Errorf("Expected bucket error, got: %v", err)
	}
}

func TestCreateBlobStore_S3MissingRegion(t *testing.T) {
	cfg := &BlobConfig{
		Type: "s3",
		S3:   map[string]any{"bucket": "drivebox"},
	}

	_, err := CreateBlobStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for S3 store without region, got nil")
	}
	if !strings.Contains(err.Error(), "region") {
		t.Errorf("Expected region error, got: %v", err)
	}
}

func TestCreateBlobStore_UnknownType(t *testing.T) {
	cfg := &BlobConfig{Type: "gcs"}

	_, err := CreateBlobStore(context.Background(), cfg)
	if err == nil {
		t.Fatal("Expected error for unknown blob store type, got nil")
	}
}

func TestCreateUserDirectory(t *testing.T) {
	aliceID := uuid.New()
	users := []UserConfig{
		{Email: "Alice@Example.com", ID: aliceID.String()},
	}

	dir, err := CreateUserDirectory(users)
	if err != nil {
		t.Fatalf("Failed to create user directory: %v", err)
	}

	// Lookups are case-insensitive
	id, err := dir.LookupEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("Expected lookup to succeed, got: %v", err)
	}
	if id != aliceID {
		t.Errorf("Expected id %s, got %s", aliceID, id)
	}
}

func TestCreateUserDirectory_InvalidID(t *testing.T) {
	users := []UserConfig{
		{Email: "alice@example.com", ID: "not-a-uuid"},
	}

	_, err := CreateUserDirectory(users)
	if err == nil {
		t.Fatal("Expected error for malformed user id, got nil")
	}
}
