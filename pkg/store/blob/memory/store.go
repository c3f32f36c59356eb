// Package memory provides an in-memory blob store for tests and local
// development.
package memory

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/anvarov/drivebox/pkg/store/blob"
)

// MemoryBlobStore implements blob.Store with a plain map.
//
// Failure injection: tests exercising upload atomicity can set FailPuts
// or FailDeletes to make the corresponding operations fail.
//
// Thread Safety:
// All operations are safe for concurrent use.
type MemoryBlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailPuts makes every Put return an error when true.
	FailPuts bool

	// FailDeletes makes every Delete return an error when true.
	FailDeletes bool
}

// NewMemoryBlobStore creates an empty in-memory blob store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		objects: make(map[string][]byte),
	}
}

// Put stores the object read from data under key.
func (s *MemoryBlobStore) Put(ctx context.Context, key string, data io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailPuts {
		return fmt.Errorf("injected put failure for %q", key)
	}

	buf, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read object data: %w", err)
	}
	if size >= 0 && int64(len(buf)) != size {
		return fmt.Errorf("object size mismatch: declared %d, read %d", size, len(buf))
	}

	s.objects[key] = buf
	return nil
}

// Delete removes the object under key. Missing keys are ignored.
func (s *MemoryBlobStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailDeletes {
		return fmt.Errorf("injected delete failure for %q", key)
	}

	delete(s.objects, key)
	return nil
}

// Exists reports whether an object is stored under key.
func (s *MemoryBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.objects[key]
	return exists, nil
}

// URLFor returns a synthetic URL carrying the key, filename and expiry.
// It is never fetchable; tests only assert on its shape.
func (s *MemoryBlobStore) URLFor(ctx context.Context, key string, filename string, expiry time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, exists := s.objects[key]; !exists {
		return "", blob.ErrNotFound
	}

	return fmt.Sprintf("memory://blobs/%s?filename=%s&expires=%d",
		url.PathEscape(key), url.QueryEscape(filename), int64(expiry.Seconds())), nil
}

// Healthcheck always succeeds unless the context is done.
func (s *MemoryBlobStore) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *MemoryBlobStore) Close() error {
	return nil
}

// Contents returns a copy of a stored object for test assertions.
func (s *MemoryBlobStore) Contents(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf, exists := s.objects[key]
	if !exists {
		return nil, false
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, true
}

// Len returns how many objects are stored.
func (s *MemoryBlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
