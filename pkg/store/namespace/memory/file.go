package memory

import (
	"context"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// ============================================================================
// File Operations
// ============================================================================

// CreateFile inserts a file row for owner.
//
// The input's FolderID, Title, BlobKey, SizeBytes, Extension and
// ThumbnailKey are honored; ID and OwnerID are assigned here. The input
// struct is not modified.
func (s *MemoryStore) CreateFile(
	ctx context.Context,
	owner namespace.UserID,
	file *namespace.File,
) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if file.FolderID != nil {
		if _, err := s.requireFolder(owner, *file.FolderID); err != nil {
			return nil, err
		}
	}

	if s.fileTitleTaken(owner, file.FolderID, file.Title, uuid.Nil) {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrConflict,
			Message: "a file with this title already exists here",
		}
	}

	stored := copyFile(file)
	stored.ID = uuid.New()
	stored.OwnerID = owner
	s.files[stored.ID] = stored

	return copyFile(stored), nil
}

// GetFile returns a file by id regardless of owner.
func (s *MemoryStore) GetFile(ctx context.Context, fileID uuid.UUID) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, exists := s.files[fileID]
	if !exists {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "file not found",
		}
	}

	return copyFile(file), nil
}

// RenameFile changes a file's title in place.
func (s *MemoryStore) RenameFile(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
	newTitle string,
) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.requireFile(owner, fileID)
	if err != nil {
		return nil, err
	}

	if s.fileTitleTaken(owner, file.FolderID, newTitle, fileID) {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrConflict,
			Message: "a file with this title already exists here",
		}
	}

	file.Title = newTitle
	return copyFile(file), nil
}

// MoveFile relocates a file to newFolderID (nil = root).
func (s *MemoryStore) MoveFile(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
	newFolderID *uuid.UUID,
) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.requireFile(owner, fileID)
	if err != nil {
		return nil, err
	}

	if newFolderID != nil {
		if _, err := s.requireFolder(owner, *newFolderID); err != nil {
			return nil, err
		}
	}

	if s.fileTitleTaken(owner, newFolderID, file.Title, fileID) {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrConflict,
			Message: "a file with this title already exists in the destination",
		}
	}

	file.FolderID = newFolderID
	return copyFile(file), nil
}

// DeleteFile removes a file row and its grants under one write lock and
// returns the removed row so the caller can clean up the blob.
func (s *MemoryStore) DeleteFile(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.requireFile(owner, fileID)
	if err != nil {
		return nil, err
	}

	// Grants first, then the row: the same order the persistent backends
	// use inside their transactions.
	for grantID, grant := range s.grants {
		if grant.FileID == fileID {
			delete(s.grants, grantID)
		}
	}

	removed := copyFile(file)
	delete(s.files, fileID)

	return removed, nil
}
