// Package drive is the public operation surface of the storage core.
//
// It composes a namespace store (folder/file metadata and sharing
// grants), a blob store (file bodies) and a clock into the services an
// external handler calls:
//
//   - Namespace: folder and file lifecycle, uploads and downloads
//   - Sharing: time-bounded permission grants on files
//   - Guard: side-effect-free authorization predicates
//
// All dependencies are passed in explicitly; the package reads no
// globals, so tests can substitute a fake clock or a failing blob
// store.
package drive

import (
	"context"
	"strings"
	"sync"

	"github.com/anvarov/drivebox/pkg/store/namespace"
)

// UserDirectory resolves an email address to a user id. Sharing uses
// it to translate the grantee email of a share request; the directory
// itself (accounts, authentication) lives outside this library.
type UserDirectory interface {
	LookupEmail(ctx context.Context, email string) (namespace.UserID, error)
}

// StaticUserDirectory is a fixed in-memory UserDirectory for tests and
// local wiring. Lookups are case-insensitive on the email.
type StaticUserDirectory struct {
	mu    sync.RWMutex
	users map[string]namespace.UserID
}

// NewStaticUserDirectory creates a directory from an email-to-id map.
func NewStaticUserDirectory(users map[string]namespace.UserID) *StaticUserDirectory {
	dir := &StaticUserDirectory{users: make(map[string]namespace.UserID, len(users))}
	for email, id := range users {
		dir.users[strings.ToLower(email)] = id
	}
	return dir
}

// Add registers or replaces one email-to-id mapping.
func (d *StaticUserDirectory) Add(email string, id namespace.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[strings.ToLower(email)] = id
}

// LookupEmail returns the user id registered for email.
func (d *StaticUserDirectory) LookupEmail(ctx context.Context, email string) (namespace.UserID, error) {
	if err := ctx.Err(); err != nil {
		return namespace.UserID{}, err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	id, exists := d.users[strings.ToLower(email)]
	if !exists {
		return namespace.UserID{}, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "no user with this email",
		}
	}
	return id, nil
}
