package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// MemoryStore implements namespace.Store using in-memory maps.
//
// It is the reference implementation: small enough to read in one
// sitting, and the backend the shared store test suite is written
// against. It suits tests, development, and ephemeral deployments where
// namespace metadata does not need to survive a restart.
//
// Thread Safety:
// All operations are protected by a single read-write mutex, so the
// store is safe for concurrent use. Holding the write lock for the whole
// mutation gives each operation the same all-or-nothing behavior the
// persistent backends get from real transactions.
//
// Storage Model:
// Three maps keyed by id (folders, files, grants) plus the mutex. There
// are no secondary indexes; sibling-uniqueness checks and listings scan
// the maps, which is fine at in-memory scale.
type MemoryStore struct {
	// mu protects every map below. Queries take the read lock, mutations
	// the write lock.
	mu sync.RWMutex

	// folders maps folder id to the folder record.
	folders map[uuid.UUID]*namespace.Folder

	// files maps file id to the file record.
	files map[uuid.UUID]*namespace.File

	// grants maps grant id to the sharing grant record.
	grants map[uuid.UUID]*namespace.SharingGrant
}

// NewMemoryStore creates an empty in-memory namespace store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		folders: make(map[uuid.UUID]*namespace.Folder),
		files:   make(map[uuid.UUID]*namespace.File),
		grants:  make(map[uuid.UUID]*namespace.SharingGrant),
	}
}

// Healthcheck always succeeds: there are no external dependencies.
func (s *MemoryStore) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

// Close releases nothing; it exists to satisfy namespace.Store.
func (s *MemoryStore) Close() error {
	return nil
}

// ============================================================================
// Internal helpers (callers hold the appropriate lock)
// ============================================================================

// sameParent reports whether two optional parent references point at the
// same place (both nil, or both the same id).
func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// folderTitleTaken reports whether owner already has a folder named title
// under parentID, ignoring excludeID (the folder being renamed/moved).
func (s *MemoryStore) folderTitleTaken(owner namespace.UserID, parentID *uuid.UUID, title string, excludeID uuid.UUID) bool {
	for _, folder := range s.folders {
		if folder.ID == excludeID {
			continue
		}
		if folder.OwnerID == owner && folder.Title == title && sameParent(folder.ParentID, parentID) {
			return true
		}
	}
	return false
}

// fileTitleTaken reports whether owner already has a file named title in
// folderID, ignoring excludeID.
func (s *MemoryStore) fileTitleTaken(owner namespace.UserID, folderID *uuid.UUID, title string, excludeID uuid.UUID) bool {
	for _, file := range s.files {
		if file.ID == excludeID {
			continue
		}
		if file.OwnerID == owner && file.Title == title && sameParent(file.FolderID, folderID) {
			return true
		}
	}
	return false
}

// requireFolder fetches a folder and verifies ownership. Missing folders
// yield ErrNotFound; foreign-owned ones yield ErrForbidden.
func (s *MemoryStore) requireFolder(owner namespace.UserID, folderID uuid.UUID) (*namespace.Folder, error) {
	folder, exists := s.folders[folderID]
	if !exists {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "folder not found",
		}
	}
	if folder.OwnerID != owner {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrForbidden,
			Message: "folder belongs to another user",
		}
	}
	return folder, nil
}

// requireFile fetches a file and verifies ownership, with the same error
// precedence as requireFolder.
func (s *MemoryStore) requireFile(owner namespace.UserID, fileID uuid.UUID) (*namespace.File, error) {
	file, exists := s.files[fileID]
	if !exists {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "file not found",
		}
	}
	if file.OwnerID != owner {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrForbidden,
			Message: "file belongs to another user",
		}
	}
	return file, nil
}

// sortEntries orders a listing: folders before files, then by title.
func sortEntries(entries []namespace.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsFolder != entries[j].IsFolder {
			return entries[i].IsFolder
		}
		return entries[i].Title < entries[j].Title
	})
}

// copyFolder returns a defensive copy so callers cannot mutate the map
// record through the returned pointer.
func copyFolder(folder *namespace.Folder) *namespace.Folder {
	out := *folder
	if folder.ParentID != nil {
		parent := *folder.ParentID
		out.ParentID = &parent
	}
	return &out
}

func copyFile(file *namespace.File) *namespace.File {
	out := *file
	if file.FolderID != nil {
		parent := *file.FolderID
		out.FolderID = &parent
	}
	return &out
}

func copyGrant(grant *namespace.SharingGrant) *namespace.SharingGrant {
	out := *grant
	return &out
}
