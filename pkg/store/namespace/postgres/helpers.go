package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// nullUUID converts an optional reference into its SQL form.
func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

// fromNullUUID converts a scanned SQL value back into an optional
// reference.
func fromNullUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

// uuidStrings renders ids for an ANY($1::uuid[]) binding.
func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// scanFolder reads one folder row.
func scanFolder(row interface{ Scan(...any) error }) (*namespace.Folder, error) {
	var folder namespace.Folder
	var parent uuid.NullUUID

	if err := row.Scan(&folder.ID, &folder.Title, &parent, &folder.OwnerID); err != nil {
		return nil, err
	}
	folder.ParentID = fromNullUUID(parent)
	return &folder, nil
}

// scanFile reads one file row.
func scanFile(row interface{ Scan(...any) error }) (*namespace.File, error) {
	var file namespace.File
	var folder uuid.NullUUID

	err := row.Scan(
		&file.ID,
		&file.Title,
		&folder,
		&file.OwnerID,
		&file.BlobKey,
		&file.SizeBytes,
		&file.Extension,
		&file.ThumbnailKey,
	)
	if err != nil {
		return nil, err
	}
	file.FolderID = fromNullUUID(folder)
	return &file, nil
}

// scanGrant reads one grant row.
func scanGrant(row interface{ Scan(...any) error }) (*namespace.SharingGrant, error) {
	var grant namespace.SharingGrant
	var permissions int16

	err := row.Scan(
		&grant.ID,
		&grant.FileID,
		&grant.GrantorID,
		&grant.GranteeID,
		&permissions,
		&grant.CreatedAt,
		&grant.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	grant.Permissions = namespace.Permission(permissions)
	return &grant, nil
}

const folderColumns = "id, title, parent_id, owner_id"
const fileColumns = "id, title, folder_id, owner_id, blob_key, size_bytes, extension, thumbnail_key"
const grantColumns = "id, file_id, grantor_id, grantee_id, permissions, created_at, expires_at"

// getFolderTx reads a folder inside a transaction.
func getFolderTx(ctx context.Context, tx *sql.Tx, folderID uuid.UUID) (*namespace.Folder, error) {
	row := tx.QueryRowContext(ctx,
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

// requireFolderTx reads a folder and verifies ownership.
func requireFolderTx(ctx context.Context, tx *sql.Tx, owner namespace.UserID, folderID uuid.UUID) (*namespace.Folder, error) {
	folder, err := getFolderTx(ctx, tx, folderID)
	if err != nil {
		return nil, err
	}
	if folder.OwnerID != owner {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrForbidden,
			Message: "folder belongs to another user",
		}
	}
	return folder, nil
}

// getFileTx reads a file inside a transaction.
func getFileTx(ctx context.Context, tx *sql.Tx, fileID uuid.UUID) (*namespace.File, error) {
	row := tx.QueryRowContext(ctx,
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

// requireFileTx reads a file and verifies ownership.
func requireFileTx(ctx context.Context, tx *sql.Tx, owner namespace.UserID, fileID uuid.UUID) (*namespace.File, error) {
	file, err := getFileTx(ctx, tx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != owner {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrForbidden,
			Message: "file belongs to another user",
		}
	}
	return file, nil
}

// getGrantTx reads a grant inside a transaction.
func getGrantTx(ctx context.Context, tx *sql.Tx, grantID uuid.UUID) (*namespace.SharingGrant, error) {
	row := tx.QueryRowContext(ctx,
		"SELECT "+grantColumns+" FROM sharing_grants WHERE id = $1", grantID)

	grant, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "grant not found",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read grant: %w", err)
	}
	return grant, nil
}

// requireGrantTx reads a grant and verifies the caller issued it.
func requireGrantTx(ctx context.Context, tx *sql.Tx, owner namespace.UserID, grantID uuid.UUID) (*namespace.SharingGrant, error) {
	grant, err := getGrantTx(ctx, tx, grantID)
	if err != nil {
		return nil, err
	}
	if grant.GrantorID != owner {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrForbidden,
			Message: "grant was issued by another user",
		}
	}
	return grant, nil
}
