package badger

import (
	"context"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ============================================================================
// File Operations
// ============================================================================

// CreateFile stores file metadata under folderID (nil = root) for owner.
// The File's ID and OwnerID fields are assigned here; all other fields
// are taken from the argument.
func (s *BadgerStore) CreateFile(
	ctx context.Context,
	owner namespace.UserID,
	file *namespace.File,
) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var created *namespace.File

	err := s.update(func(txn *badger.Txn) error {
		if file.FolderID != nil {
			if _, err := requireFolderTxn(txn, owner, *file.FolderID); err != nil {
				return err
			}
		}

		indexKey := keyFileChild(owner, file.FolderID, file.Title)
		taken, err := keyExists(txn, indexKey)
		if err != nil {
			return err
		}
		if taken {
			return &namespace.StoreError{
				Code:    namespace.ErrConflict,
				Message: "a file with this title already exists here",
			}
		}

		record := *file
		record.ID = uuid.New()
		record.OwnerID = owner

		data, err := encodeFile(&record)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(record.ID), data); err != nil {
			return err
		}
		if err := txn.Set(indexKey, record.ID[:]); err != nil {
			return err
		}

		created = &record
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetFile returns a file record by id regardless of owner.
func (s *BadgerStore) GetFile(ctx context.Context, fileID uuid.UUID) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var file *namespace.File
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := getFileTxn(txn, fileID)
		if err != nil {
			return err
		}
		file = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return file, nil
}

// RenameFile changes a file's title, swapping its sibling index key in
// the same transaction.
func (s *BadgerStore) RenameFile(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
	newTitle string,
) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var renamed *namespace.File

	err := s.update(func(txn *badger.Txn) error {
		file, err := requireFileTxn(txn, owner, fileID)
		if err != nil {
			return err
		}
		if file.Title == newTitle {
			renamed = file
			return nil
		}

		newKey := keyFileChild(owner, file.FolderID, newTitle)
		taken, err := keyExists(txn, newKey)
		if err != nil {
			return err
		}
		if taken {
			return &namespace.StoreError{
				Code:    namespace.ErrConflict,
				Message: "a file with this title already exists here",
			}
		}

		if err := txn.Delete(keyFileChild(owner, file.FolderID, file.Title)); err != nil {
			return err
		}

		file.Title = newTitle
		data, err := encodeFile(file)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(file.ID), data); err != nil {
			return err
		}
		if err := txn.Set(newKey, file.ID[:]); err != nil {
			return err
		}

		renamed = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	return renamed, nil
}

// MoveFile relocates a file to another folder (nil = root).
func (s *BadgerStore) MoveFile(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
	newFolderID *uuid.UUID,
) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var moved *namespace.File

	err := s.update(func(txn *badger.Txn) error {
		file, err := requireFileTxn(txn, owner, fileID)
		if err != nil {
			return err
		}
		if sameParent(file.FolderID, newFolderID) {
			moved = file
			return nil
		}

		if newFolderID != nil {
			if _, err := requireFolderTxn(txn, owner, *newFolderID); err != nil {
				return err
			}
		}

		newKey := keyFileChild(owner, newFolderID, file.Title)
		taken, err := keyExists(txn, newKey)
		if err != nil {
			return err
		}
		if taken {
			return &namespace.StoreError{
				Code:    namespace.ErrConflict,
				Message: "a file with this title already exists in the destination",
			}
		}

		if err := txn.Delete(keyFileChild(owner, file.FolderID, file.Title)); err != nil {
			return err
		}

		file.FolderID = newFolderID
		data, err := encodeFile(file)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFile(file.ID), data); err != nil {
			return err
		}
		if err := txn.Set(newKey, file.ID[:]); err != nil {
			return err
		}

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
func (s *BadgerStore) DeleteFile(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
) (*namespace.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var removed *namespace.File

	err := s.update(func(txn *badger.Txn) error {
		file, err := requireFileTxn(txn, owner, fileID)
		if err != nil {
			return err
		}

		if _, err := deleteGrantsForFileTxn(txn, fileID); err != nil {
			return err
		}

		if err := txn.Delete(keyFileChild(owner, file.FolderID, file.Title)); err != nil {
			return err
		}
		if err := txn.Delete(keyFile(fileID)); err != nil {
			return err
		}

		removed = file
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}
