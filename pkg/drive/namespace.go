package drive

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/anvarov/drivebox/internal/logger"
	"github.com/anvarov/drivebox/pkg/store/blob"
	"github.com/anvarov/drivebox/pkg/store/namespace"
)

// Namespace is the folder and file lifecycle service.
//
// Metadata changes go through the namespace store's transactions; file
// bodies go through the blob store. Because the blob store cannot join
// a metadata transaction, the two are ordered so that failures never
// leave a metadata row pointing at a missing blob:
//
//	upload: write blob, then metadata; roll the blob back if the
//	        metadata write fails
//	delete: grants and metadata first (one transaction), then blobs;
//	        a failed blob delete leaves a harmless orphan and is logged
type Namespace struct {
	store namespace.Store
	blobs blob.Store
	clock namespace.Clock
	guard *Guard
}

// NewNamespace creates the namespace service.
func NewNamespace(store namespace.Store, blobs blob.Store, clock namespace.Clock) *Namespace {
	return &Namespace{
		store: store,
		blobs: blobs,
		clock: clock,
		guard: NewGuard(store, clock),
	}
}

// Guard returns the authorization predicates bound to this service's
// store and clock.
func (n *Namespace) Guard() *Guard {
	return n.guard
}

// CreateFolder creates a folder under parentID (nil = root) after
// sanitizing the title.
func (n *Namespace) CreateFolder(ctx context.Context, actor namespace.UserID, parentID *uuid.UUID, title string) (*namespace.Folder, error) {
	clean, err := namespace.CleanTitle(title)
	if err != nil {
		return nil, err
	}
	return n.store.CreateFolder(ctx, actor, parentID, clean)
}

// RenameFolder changes a folder's title after sanitizing it.
func (n *Namespace) RenameFolder(ctx context.Context, actor namespace.UserID, folderID uuid.UUID, newTitle string) (*namespace.Folder, error) {
	clean, err := namespace.CleanTitle(newTitle)
	if err != nil {
		return nil, err
	}
	return n.store.RenameFolder(ctx, actor, folderID, clean)
}

// MoveFolder reparents a folder (nil = root).
func (n *Namespace) MoveFolder(ctx context.Context, actor namespace.UserID, folderID uuid.UUID, newParentID *uuid.UUID) (*namespace.Folder, error) {
	return n.store.MoveFolder(ctx, actor, folderID, newParentID)
}

// MoveFile relocates a file to another folder (nil = root).
func (n *Namespace) MoveFile(ctx context.Context, actor namespace.UserID, fileID uuid.UUID, newFolderID *uuid.UUID) (*namespace.File, error) {
	return n.store.MoveFile(ctx, actor, fileID, newFolderID)
}

// RenameFile changes a file's title after sanitizing it.
//
// The owner may always rename. A grantee may rename when they hold an
// active grant on the file that includes the rename permission; the
// rename then runs on the owner's behalf.
func (n *Namespace) RenameFile(ctx context.Context, actor namespace.UserID, fileID uuid.UUID, newTitle string) (*namespace.File, error) {
	clean, err := namespace.CleanTitle(newTitle)
	if err != nil {
		return nil, err
	}

	file, err := n.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}

	if file.OwnerID != actor && !n.guard.HasGrantPermission(ctx, actor, fileID, namespace.PermissionRename) {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrForbidden,
			Message: "file belongs to another user",
		}
	}

	return n.store.RenameFile(ctx, file.OwnerID, fileID, clean)
}

// ListChildren returns one directory level for actor: folders first,
// then files, ordered by title within each group.
func (n *Namespace) ListChildren(ctx context.Context, actor namespace.UserID, folderID *uuid.UUID) ([]namespace.Entry, error) {
	return n.store.ListChildren(ctx, actor, folderID)
}

// UploadFile stores a file body and its metadata under folderID
// (nil = root).
//
// The blob is written first. If the metadata write then fails (title
// conflict, missing folder), the blob is rolled back so no orphan
// object survives a failed upload; a failed rollback is logged rather
// than surfaced because the upload error is the one the caller needs.
func (n *Namespace) UploadFile(
	ctx context.Context,
	actor namespace.UserID,
	folderID *uuid.UUID,
	title string,
	content io.Reader,
	size int64,
	extension string,
) (*namespace.File, error) {
	clean, err := namespace.CleanTitle(title)
	if err != nil {
		return nil, err
	}

	blobKey := fmt.Sprintf("%s/%s", actor, uuid.New())
	if extension != "" {
		blobKey += "." + extension
	}

	if err := n.blobs.Put(ctx, blobKey, content, size); err != nil {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrStorageUnavailable,
			Message: "failed to store file content: " + err.Error(),
		}
	}

	file, err := n.store.CreateFile(ctx, actor, &namespace.File{
		Title:     clean,
		FolderID:  folderID,
		BlobKey:   blobKey,
		SizeBytes: size,
		Extension: extension,
	})
	if err != nil {
		if delErr := n.blobs.Delete(ctx, blobKey); delErr != nil {
			logger.Warn("failed to roll back blob %s after metadata failure: %v", blobKey, delErr)
		}
		return nil, err
	}

	return file, nil
}

// DeleteFile removes a file: its grants and metadata row in one
// transaction, then its blob.
//
// The owner may always delete. A grantee may delete when they hold an
// active grant that includes the delete permission.
func (n *Namespace) DeleteFile(ctx context.Context, actor namespace.UserID, fileID uuid.UUID) error {
	file, err := n.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}

	if file.OwnerID != actor && !n.guard.HasGrantPermission(ctx, actor, fileID, namespace.PermissionDelete) {
		return &namespace.StoreError{
			Code:    namespace.ErrForbidden,
			Message: "file belongs to another user",
		}
	}

	removed, err := n.store.DeleteFile(ctx, file.OwnerID, fileID)
	if err != nil {
		return err
	}

	n.deleteBlobs(ctx, []namespace.File{*removed})
	return nil
}

// DeleteFolder removes a folder and its whole subtree: grants and
// metadata rows in one transaction, then the blobs of every deleted
// file.
func (n *Namespace) DeleteFolder(ctx context.Context, actor namespace.UserID, folderID uuid.UUID) (*namespace.CascadeResult, error) {
	result, err := n.store.DeleteFolderTree(ctx, actor, folderID)
	if err != nil {
		return nil, err
	}

	n.deleteBlobs(ctx, result.Files)
	return result, nil
}

// DownloadURL returns a time-limited download URL for a file body.
//
// The owner may always download; a grantee needs an active grant with
// the read permission.
func (n *Namespace) DownloadURL(ctx context.Context, actor namespace.UserID, fileID uuid.UUID, expiry time.Duration) (string, error) {
	file, err := n.store.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}

	if file.OwnerID != actor && !n.guard.HasGrantPermission(ctx, actor, fileID, namespace.PermissionRead) {
		return "", &namespace.StoreError{
			Code:    namespace.ErrForbidden,
			Message: "file belongs to another user",
		}
	}

	filename := file.Title
	if file.Extension != "" {
		filename += "." + file.Extension
	}

	url, err := n.blobs.URLFor(ctx, file.BlobKey, filename, expiry)
	if err != nil {
		return "", &namespace.StoreError{
			Code:    namespace.ErrStorageUnavailable,
			Message: "failed to sign download URL: " + err.Error(),
		}
	}
	return url, nil
}

// deleteBlobs removes file bodies after their metadata is gone. The
// metadata transaction has already committed, so failures here only
// orphan blobs; they are logged and not surfaced.
func (n *Namespace) deleteBlobs(ctx context.Context, files []namespace.File) {
	for _, file := range files {
		if err := n.blobs.Delete(ctx, file.BlobKey); err != nil {
			logger.Warn("failed to delete blob %s for removed file %s: %v", file.BlobKey, file.ID, err)
		}
	}
}
