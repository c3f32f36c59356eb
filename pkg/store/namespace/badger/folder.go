package badger

import (
	"context"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ============================================================================
// Folder Operations
// ============================================================================

// CreateFolder creates a folder under parentID (nil = root) for owner.
func (s *BadgerStore) CreateFolder(
	ctx context.Context,
	owner namespace.UserID,
	parentID *uuid.UUID,
	title string,
) (*namespace.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var created *namespace.Folder

	err := s.update(func(txn *badger.Txn) error {
		if parentID != nil {
			if _, err := requireFolderTxn(txn, owner, *parentID); err != nil {
				return err
			}
		}

		indexKey := keyFolderChild(owner, parentID, title)
		taken, err := keyExists(txn, indexKey)
		if err != nil {
			return err
		}
		if taken {
			return &namespace.StoreError{
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

		data, err := encodeFolder(folder)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFolder(folder.ID), data); err != nil {
			return err
		}
		if err := txn.Set(indexKey, folder.ID[:]); err != nil {
			return err
		}

		created = folder
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// GetFolder returns a folder record by id regardless of owner.
func (s *BadgerStore) GetFolder(ctx context.Context, folderID uuid.UUID) (*namespace.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var folder *namespace.Folder
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := getFolderTxn(txn, folderID)
		if err != nil {
			return err
		}
		folder = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return folder, nil
}

// RenameFolder changes a folder's title, swapping its sibling index key
// in the same transaction.
func (s *BadgerStore) RenameFolder(
	ctx context.Context,
	owner namespace.UserID,
	folderID uuid.UUID,
	newTitle string,
) (*namespace.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var renamed *namespace.Folder

	err := s.update(func(txn *badger.Txn) error {
		folder, err := requireFolderTxn(txn, owner, folderID)
		if err != nil {
			return err
		}
		if folder.Title == newTitle {
			renamed = folder
			return nil
		}

		newKey := keyFolderChild(owner, folder.ParentID, newTitle)
		taken, err := keyExists(txn, newKey)
		if err != nil {
			return err
		}
		if taken {
			return &namespace.StoreError{
				Code:    namespace.ErrConflict,
				Message: "a folder with this title already exists here",
			}
		}

		if err := txn.Delete(keyFolderChild(owner, folder.ParentID, folder.Title)); err != nil {
			return err
		}

		folder.Title = newTitle
		data, err := encodeFolder(folder)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFolder(folder.ID), data); err != nil {
			return err
		}
		if err := txn.Set(newKey, folder.ID[:]); err != nil {
			return err
		}

		renamed = folder
		return nil
	})
	if err != nil {
		return nil, err
	}

	return renamed, nil
}

// MoveFolder reparents a folder, walking the destination's ancestor
// chain inside the transaction to refuse cycles.
func (s *BadgerStore) MoveFolder(
	ctx context.Context,
	owner namespace.UserID,
	folderID uuid.UUID,
	newParentID *uuid.UUID,
) (*namespace.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var moved *namespace.Folder

	err := s.update(func(txn *badger.Txn) error {
		folder, err := requireFolderTxn(txn, owner, folderID)
		if err != nil {
			return err
		}
		if sameParent(folder.ParentID, newParentID) {
			moved = folder
			return nil
		}

		if newParentID != nil {
			if _, err := requireFolderTxn(txn, owner, *newParentID); err != nil {
				return err
			}

			// Ancestor walk: destination up to root. Finding the moved
			// folder means the destination lives inside its subtree.
			for cursor := newParentID; cursor != nil; {
				if *cursor == folderID {
					return &namespace.StoreError{
						Code:    namespace.ErrInvalidOperation,
						Message: "cannot move a folder into itself or its own subtree",
					}
				}
				parent, err := getFolderTxn(txn, *cursor)
				if err != nil {
					return err
				}
				cursor = parent.ParentID
			}
		}

		newKey := keyFolderChild(owner, newParentID, folder.Title)
		taken, err := keyExists(txn, newKey)
		if err != nil {
			return err
		}
		if taken {
			return &namespace.StoreError{
				Code:    namespace.ErrConflict,
				Message: "a folder with this title already exists in the destination",
			}
		}

		if err := txn.Delete(keyFolderChild(owner, folder.ParentID, folder.Title)); err != nil {
			return err
		}

		folder.ParentID = newParentID
		data, err := encodeFolder(folder)
		if err != nil {
			return err
		}
		if err := txn.Set(keyFolder(folder.ID), data); err != nil {
			return err
		}
		if err := txn.Set(newKey, folder.ID[:]); err != nil {
			return err
		}

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
//
// The sibling index keys are already sorted by title within a prefix, so
// two range scans produce the final order directly.
func (s *BadgerStore) ListChildren(
	ctx context.Context,
	owner namespace.UserID,
	folderID *uuid.UUID,
) ([]namespace.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := []namespace.Entry{}

	err := s.db.View(func(txn *badger.Txn) error {
		if folderID != nil {
			if _, err := requireFolderTxn(txn, owner, *folderID); err != nil {
				return err
			}
		}

		// Folder children.
		folderIDs, err := scanChildIndex(txn, keyFolderChildScan(owner, folderID))
		if err != nil {
			return err
		}
		for _, childID := range folderIDs {
			folder, err := getFolderTxn(txn, childID)
			if err != nil {
				return err
			}
			entries = append(entries, namespace.Entry{
				ID:       folder.ID,
				Title:    folder.Title,
				IsFolder: true,
			})
		}

		// File children.
		fileIDs, err := scanChildIndex(txn, keyFileChildScan(owner, folderID))
		if err != nil {
			return err
		}
		for _, childID := range fileIDs {
			file, err := getFileTxn(txn, childID)
			if err != nil {
				return err
			}
			entries = append(entries, namespace.Entry{
				ID:        file.ID,
				Title:     file.Title,
				SizeBytes: file.SizeBytes,
				Extension: file.Extension,
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteFolderTree removes a folder and every descendant folder, file
// and grant in one transaction, bottom-up.
func (s *BadgerStore) DeleteFolderTree(
	ctx context.Context,
	owner namespace.UserID,
	folderID uuid.UUID,
) (*namespace.CascadeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &namespace.CascadeResult{}

	err := s.update(func(txn *badger.Txn) error {
		root, err := requireFolderTxn(txn, owner, folderID)
		if err != nil {
			return err
		}

		// Phase 1: collect the whole subtree breadth-first so the
		// transaction size is known before anything is deleted.
		subtree := []*namespace.Folder{root}
		for i := 0; i < len(subtree); i++ {
			parent := subtree[i]
			childIDs, err := scanChildIndex(txn, keyFolderChildScan(owner, &parent.ID))
			if err != nil {
				return err
			}
			for _, childID := range childIDs {
				child, err := getFolderTxn(txn, childID)
				if err != nil {
					return err
				}
				subtree = append(subtree, child)
			}
		}

		// Phase 2: delete files (grants first) in every collected folder.
		for _, folder := range subtree {
			fileIDs, err := scanChildIndex(txn, keyFileChildScan(owner, &folder.ID))
			if err != nil {
				return err
			}
			for _, fileID := range fileIDs {
				file, err := getFileTxn(txn, fileID)
				if err != nil {
					return err
				}
				grants, err := deleteGrantsForFileTxn(txn, fileID)
				if err != nil {
					return err
				}
				result.Grants += grants

				if err := txn.Delete(keyFileChild(owner, file.FolderID, file.Title)); err != nil {
					return err
				}
				if err := txn.Delete(keyFile(fileID)); err != nil {
					return err
				}
				result.Files = append(result.Files, *file)
			}
		}

		// Phase 3: delete folders leaves-first.
		for i := len(subtree) - 1; i >= 0; i-- {
			folder := subtree[i]
			if err := txn.Delete(keyFolderChild(owner, folder.ParentID, folder.Title)); err != nil {
				return err
			}
			if err := txn.Delete(keyFolder(folder.ID)); err != nil {
				return err
			}
			result.Folders++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// scanChildIndex collects the child ids under one sibling-index prefix,
// in key (= title) order.
func scanChildIndex(txn *badger.Txn, prefix []byte) ([]uuid.UUID, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []uuid.UUID
	for it.Rewind(); it.Valid(); it.Next() {
		id, err := readUUIDValue(it.Item())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}
