// Package blob defines the content storage contract for file bodies.
//
// The namespace stores track metadata only; the bytes of every file
// live in a blob store under the file's BlobKey. Implementations are
// dumb key-value object stores: they know nothing about folders,
// owners or grants.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("blob not found")

// Store is the content storage contract.
//
// Keys are opaque strings chosen by the caller. Writes are
// last-write-wins; there is no versioning.
type Store interface {
	// Put stores the object read from data under key, replacing any
	// existing object. size is the exact byte length of data.
	Put(ctx context.Context, key string, data io.Reader, size int64) error

	// Delete removes the object under key. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// URLFor returns a time-limited download URL for the object under
	// key. filename sets the download filename the browser will use.
	// Returns ErrNotFound if the key has no object.
	URLFor(ctx context.Context, key string, filename string, expiry time.Duration) (string, error)

	// Healthcheck verifies the backing storage is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
