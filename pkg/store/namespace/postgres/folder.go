package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// ============================================================================
// Folder Operations
// ============================================================================

// CreateFolder creates a folder under parentID (nil = root) for owner.
func (s *PostgresStore) CreateFolder(
	ctx context.Context,
	owner namespace.UserID,
	parentID *uuid.UUID,
	title string,
) (*namespace.Folder, error) {
	folder := &namespace.Folder{
		ID:       uuid.New(),
		Title:    title,
		ParentID: parentID,
		OwnerID:  owner,
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if parentID != nil {
			if _, err := requireFolderTx(ctx, tx, owner, *parentID); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx,
			"INSERT INTO folders (id, title, parent_id, owner_id) VALUES ($1, $2, $3, $4)",
			folder.ID, folder.Title, nullUUID(folder.ParentID), folder.OwnerID)
		if err != nil {
			return conflictOr(err, "a folder with this title already exists here")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return folder, nil
}

// GetFolder returns a folder record by id regardless of owner.
func (s *PostgresStore) GetFolder(ctx context.Context, folderID uuid.UUID) (*namespace.Folder, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+folderColumns+" FROM folders WHERE id = $1", folderID)

	folder, err := scanFolder(row)
	if err == sql.ErrNoRows {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "folder not found",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}
	return folder, nil
}

// RenameFolder changes a folder's title.
func (s *PostgresStore) RenameFolder(
	ctx context.Context,
	owner namespace.UserID,
	folderID uuid.UUID,
	newTitle string,
) (*namespace.Folder, error) {
	var renamed *namespace.Folder

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		folder, err := requireFolderTx(ctx, tx, owner, folderID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE folders SET title = $1 WHERE id = $2", newTitle, folderID)
		if err != nil {
			return conflictOr(err, "a folder with this title already exists here")
		}

		folder.Title = newTitle
		renamed = folder
		return nil
	})
	if err != nil {
		return nil, err
	}

	return renamed, nil
}

// MoveFolder reparents a folder, refusing moves into the folder's own
// subtree. The ancestor walk runs as a recursive CTE inside the same
// transaction as the update, at SERIALIZABLE: at read-committed two
// concurrent opposing moves could each pass the walk and commit a
// cycle.
func (s *PostgresStore) MoveFolder(
	ctx context.Context,
	owner namespace.UserID,
	folderID uuid.UUID,
	newParentID *uuid.UUID,
) (*namespace.Folder, error) {
	var moved *namespace.Folder

	err := s.withSerializableTx(ctx, func(tx *sql.Tx) error {
		folder, err := requireFolderTx(ctx, tx, owner, folderID)
		if err != nil {
			return err
		}

		if newParentID != nil {
			if _, err := requireFolderTx(ctx, tx, owner, *newParentID); err != nil {
				return err
			}

			var inSubtree bool
			err := tx.QueryRowContext(ctx, `
				WITH RECURSIVE ancestors AS (
					SELECT id, parent_id FROM folders WHERE id = $1
					UNION ALL
					SELECT f.id, f.parent_id
					FROM folders f
					JOIN ancestors a ON f.id = a.parent_id
				)
				SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = $2)`,
				*newParentID, folderID).Scan(&inSubtree)
			if err != nil {
				return fmt.Errorf("failed to check folder ancestry: %w", err)
			}
			if inSubtree {
				return &namespace.StoreError{
					Code:    namespace.ErrInvalidOperation,
					Message: "cannot move a folder into itself or its own subtree",
				}
			}
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE folders SET parent_id = $1 WHERE id = $2",
			nullUUID(newParentID), folderID)
		if err != nil {
			return conflictOr(err, "a folder with this title already exists in the destination")
		}

		folder.ParentID = newParentID
		moved = folder
		return nil
	})
	if err != nil {
		return nil, err
	}

	return moved, nil
}

// ListChildren returns one directory level: folders first, then files,
// each group ordered by title.
func (s *PostgresStore) ListChildren(
	ctx context.Context,
	owner namespace.UserID,
	folderID *uuid.UUID,
) ([]namespace.Entry, error) {
	entries := []namespace.Entry{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if folderID != nil {
			if _, err := requireFolderTx(ctx, tx, owner, *folderID); err != nil {
				return err
			}
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT id, title FROM folders
			WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2
			ORDER BY title`,
			owner, nullUUID(folderID))
		if err != nil {
			return fmt.Errorf("failed to list folders: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var entry namespace.Entry
			if err := rows.Scan(&entry.ID, &entry.Title); err != nil {
				return err
			}
			entry.IsFolder = true
			entries = append(entries, entry)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		fileRows, err := tx.QueryContext(ctx, `
			SELECT id, title, size_bytes, extension FROM files
			WHERE owner_id = $1 AND folder_id IS NOT DISTINCT FROM $2
			ORDER BY title`,
			owner, nullUUID(folderID))
		if err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}
		defer fileRows.Close()

		for fileRows.Next() {
			var entry namespace.Entry
			if err := fileRows.Scan(&entry.ID, &entry.Title, &entry.SizeBytes, &entry.Extension); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return fileRows.Err()
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteFolderTree removes a folder and every descendant folder, file
// and grant in one transaction.
func (s *PostgresStore) DeleteFolderTree(
	ctx context.Context,
	owner namespace.UserID,
	folderID uuid.UUID,
) (*namespace.CascadeResult, error) {
	result := &namespace.CascadeResult{}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireFolderTx(ctx, tx, owner, folderID); err != nil {
			return err
		}

		// Collect the whole subtree first.
		rows, err := tx.QueryContext(ctx, `
			WITH RECURSIVE subtree AS (
				SELECT id FROM folders WHERE id = $1
				UNION ALL
				SELECT f.id FROM folders f JOIN subtree s ON f.parent_id = s.id
			)
			SELECT id FROM subtree`, folderID)
		if err != nil {
			return fmt.Errorf("failed to collect folder subtree: %w", err)
		}

		var folderIDs []uuid.UUID
		for rows.Next() {
			var id uuid.UUID
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			folderIDs = append(folderIDs, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		folderSet := uuidStrings(folderIDs)

		// Capture the files before deleting them so callers can release
		// the underlying blobs.
		fileRows, err := tx.QueryContext(ctx,
			"SELECT "+fileColumns+" FROM files WHERE folder_id = ANY($1::uuid[])",
			folderSet)
		if err != nil {
			return fmt.Errorf("failed to collect files in subtree: %w", err)
		}

		var fileIDs []uuid.UUID
		for fileRows.Next() {
			file, err := scanFile(fileRows)
			if err != nil {
				fileRows.Close()
				return err
			}
			result.Files = append(result.Files, *file)
			fileIDs = append(fileIDs, file.ID)
		}
		if err := fileRows.Err(); err != nil {
			fileRows.Close()
			return err
		}
		fileRows.Close()

		if len(fileIDs) > 0 {
			res, err := tx.ExecContext(ctx,
				"DELETE FROM sharing_grants WHERE file_id = ANY($1::uuid[])",
				uuidStrings(fileIDs))
			if err != nil {
				return fmt.Errorf("failed to delete grants in subtree: %w", err)
			}
			grants, err := res.RowsAffected()
			if err != nil {
				return err
			}
			result.Grants = int(grants)

			if _, err := tx.ExecContext(ctx,
				"DELETE FROM files WHERE id = ANY($1::uuid[])",
				uuidStrings(fileIDs)); err != nil {
				return fmt.Errorf("failed to delete files in subtree: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			"DELETE FROM folders WHERE id = ANY($1::uuid[])", folderSet); err != nil {
			return fmt.Errorf("failed to delete folder subtree: %w", err)
		}
		result.Folders = len(folderIDs)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
