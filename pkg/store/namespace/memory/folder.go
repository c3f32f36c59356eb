package memory

import (
	"context"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// ============================================================================
// Folder Operations
// ============================================================================

// CreateFolder creates a folder under parentID (nil = root) for owner.
//
// The uniqueness check and the insert happen under the same write lock,
// so two concurrent creations of the same (owner, parent, title) resolve
// to one success and one ErrConflict.
func (s *MemoryStore) CreateFolder(
	ctx context.Context,
	owner namespace.UserID,
	parentID *uuid.UUID,
	title string,
) (*namespace.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if parentID != nil {
		if _, err := s.requireFolder(owner, *parentID); err != nil {
			return nil, err
		}
	}

	if s.folderTitleTaken(owner, parentID, title, uuid.Nil) {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrConflict,
			Message: "a folder with this title already exists here",
		}
	}

	folder := &namespace.Folder{
		ID:       uuid.New(),
		Title:    title,
		ParentID: parentID,
		OwnerID:  owner,
	}
	s.folders[folder.ID] = folder

	return copyFolder(folder), nil
}

// GetFolder returns a folder by id regardless of owner.
func (s *MemoryStore) GetFolder(ctx context.Context, folderID uuid.UUID) (*namespace.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	folder, exists := s.folders[folderID]
	if !exists {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "folder not found",
		}
	}

	return copyFolder(folder), nil
}

// RenameFolder changes a folder's title in place.
func (s *MemoryStore) RenameFolder(
	ctx context.Context,
	owner namespace.UserID,
	folderID uuid.UUID,
	newTitle string,
) (*namespace.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, err := s.requireFolder(owner, folderID)
	if err != nil {
		return nil, err
	}

	if s.folderTitleTaken(owner, folder.ParentID, newTitle, folderID) {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrConflict,
			Message: "a folder with this title already exists here",
		}
	}

	folder.Title = newTitle
	return copyFolder(folder), nil
}

// MoveFolder reparents a folder, refusing cycles.
//
// The ancestor walk runs while the write lock is held, so no concurrent
// move can restructure the tree between the check and the reparent.
func (s *MemoryStore) MoveFolder(
	ctx context.Context,
	owner namespace.UserID,
	folderID uuid.UUID,
	newParentID *uuid.UUID,
) (*namespace.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	folder, err := s.requireFolder(owner, folderID)
	if err != nil {
		return nil, err
	}

	if newParentID != nil {
		if _, err := s.requireFolder(owner, *newParentID); err != nil {
			return nil, err
		}

		// Walk from the destination to the root. Meeting the moved folder
		// on the way means the destination is inside its subtree.
		for cursor := newParentID; cursor != nil; {
			if *cursor == folderID {
				return nil, &namespace.StoreError{
					Code:    namespace.ErrInvalidOperation,
					Message: "cannot move a folder into itself or its own subtree",
				}
			}
			parent, exists := s.folders[*cursor]
			if !exists {
				break
			}
			cursor = parent.ParentID
		}
	}

	if s.folderTitleTaken(owner, newParentID, folder.Title, folderID) {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrConflict,
			Message: "a folder with this title already exists in the destination",
		}
	}

	folder.ParentID = newParentID
	return copyFolder(folder), nil
}

// DeleteFolderTree removes a folder and every descendant under one write
// lock: the in-memory equivalent of a single transaction.
func (s *MemoryStore) DeleteFolderTree(
	ctx context.Context,
	owner namespace.UserID,
	folderID uuid.UUID,
) (*namespace.CascadeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireFolder(owner, folderID); err != nil {
		return nil, err
	}

	// Collect the full descendant folder set first so the deletion loop
	// below works from a stable snapshot.
	subtree := []uuid.UUID{folderID}
	inSubtree := map[uuid.UUID]bool{folderID: true}
	for i := 0; i < len(subtree); i++ {
		for id, folder := range s.folders {
			if folder.ParentID != nil && *folder.ParentID == subtree[i] && !inSubtree[id] {
				subtree = append(subtree, id)
				inSubtree[id] = true
			}
		}
	}

	result := &namespace.CascadeResult{}

	// Files (and their grants) go first, folders after: bottom-up.
	for id, file := range s.files {
		if file.FolderID == nil || !inSubtree[*file.FolderID] {
			continue
		}
		for grantID, grant := range s.grants {
			if grant.FileID == id {
				delete(s.grants, grantID)
				result.Grants++
			}
		}
		result.Files = append(result.Files, *file)
		delete(s.files, id)
	}

	for i := len(subtree) - 1; i >= 0; i-- {
		delete(s.folders, subtree[i])
		result.Folders++
	}

	return result, nil
}

// ListChildren returns one directory level: folders first, then files,
// lexicographic by title within each group.
func (s *MemoryStore) ListChildren(
	ctx context.Context,
	owner namespace.UserID,
	folderID *uuid.UUID,
) ([]namespace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if folderID != nil {
		if _, err := s.requireFolder(owner, *folderID); err != nil {
			return nil, err
		}
	}

	entries := []namespace.Entry{}

	for _, folder := range s.folders {
		if folder.OwnerID == owner && sameParent(folder.ParentID, folderID) {
			entries = append(entries, namespace.Entry{
				ID:       folder.ID,
				Title:    folder.Title,
				IsFolder: true,
			})
		}
	}

	for _, file := range s.files {
		if file.OwnerID == owner && sameParent(file.FolderID, folderID) {
			entries = append(entries, namespace.Entry{
				ID:        file.ID,
				Title:     file.Title,
				SizeBytes: file.SizeBytes,
				Extension: file.Extension,
			})
		}
	}

	sortEntries(entries)
	return entries, nil
}
