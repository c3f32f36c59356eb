package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// ============================================================================
// File Operations
// ============================================================================

// CreateFile stores file metadata under file.FolderID (nil = root).
// The ID and OwnerID fields are assigned here.
func (s *PostgresStore) CreateFile(
	ctx context.Context,
	owner namespace.UserID,
	file *namespace.File,
) (*namespace.File, error) {
	record := *file
	record.ID = uuid.New()
	record.OwnerID = owner

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if record.FolderID != nil {
			if _, err := requireFolderTx(ctx, tx, owner, *record.FolderID); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO files (id, title, folder_id, owner_id, blob_key, size_bytes, extension, thumbnail_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			record.ID, record.Title, nullUUID(record.FolderID), record.OwnerID,
			record.BlobKey, record.SizeBytes, record.Extension, record.ThumbnailKey)
		if err != nil {
			return conflictOr(err, "a file with this title already exists here")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// GetFile returns a file record by id regardless of owner.
func (s *PostgresStore) GetFile(ctx context.Context, fileID uuid.UUID) (*namespace.File, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+fileColumns+" FROM files WHERE id = $1", fileID)

	file, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "file not found",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return file, nil
}

// RenameFile changes a file's title.
func (s *PostgresStore) RenameFile(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
	newTitle string,
) (*namespace.File, error) {
	var renamed *namespace.File

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		file, err := requireFileTx(ctx, tx, owner, fileID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE files SET title = $1 WHERE id = $2", newTitle, fileID)
		if err != nil {
			return conflictOr(err, "a file with this title already exists here")
		}

		file.Title = newTitle
		renamed = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	return renamed, nil
}

// MoveFile relocates a file to another folder (nil = root).
func (s *PostgresStore) MoveFile(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
	newFolderID *uuid.UUID,
) (*namespace.File, error) {
	var moved *namespace.File

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		file, err := requireFileTx(ctx, tx, owner, fileID)
		if err != nil {
			return err
		}

		if newFolderID != nil {
			if _, err := requireFolderTx(ctx, tx, owner, *newFolderID); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE files SET folder_id = $1 WHERE id = $2",
			nullUUID(newFolderID), fileID)
		if err != nil {
			return conflictOr(err, "a file with this title already exists in the destination")
		}

		file.FolderID = newFolderID
		moved = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	return moved, nil
}

// DeleteFile removes a file record and every grant on it, returning the
// removed record so callers can release the underlying blob.
func (s *PostgresStore) DeleteFile(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
) (*namespace.File, error) {
	var removed *namespace.File

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		file, err := requireFileTx(ctx, tx, owner, fileID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM sharing_grants WHERE file_id = $1", fileID); err != nil {
			return fmt.Errorf("failed to delete grants: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM files WHERE id = $1", fileID); err != nil {
			return fmt.Errorf("failed to delete file: %w", err)
		}

		removed = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}
