package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
)

// BadgerStore implements namespace.Store using BadgerDB for persistence.
//
// This is the embedded persistent backend: namespace metadata survives
// restarts without requiring an external database. It is suitable for
// single-node deployments and local development with durability.
//
// Transactions:
// Every operation runs inside a single BadgerDB transaction (db.Update
// for mutations, db.View for reads). BadgerDB provides serializable
// snapshot isolation: when two concurrent transactions race on the same
// sibling-index key, one of them fails to commit with badger.ErrConflict.
// The store retries such aborts; the retry then observes the winner's
// index entry and returns a domain ErrConflict. This closes the
// check-then-act race without any application-level locking.
//
// Thread Safety:
// BadgerDB transactions are safe for concurrent use; the store adds no
// locking of its own.
type BadgerStore struct {
	// db is the BadgerDB database handle.
	db *badger.DB
}

// BadgerStoreConfig contains configuration for creating a Badger-backed
// namespace store.
type BadgerStoreConfig struct {
	// DBPath is the directory where BadgerDB stores its files.
	DBPath string `mapstructure:"db_path"`

	// InMemory runs BadgerDB without disk persistence. Used by tests.
	InMemory bool `mapstructure:"in_memory"`

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64).
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`
}

// maxCommitRetries bounds how often a transaction aborted by BadgerDB's
// conflict detection is retried before the abort is surfaced.
const maxCommitRetries = 3

// NewBadgerStore opens a Badger-backed namespace store.
//
// The database directory is created if missing. The returned store is
// ready for concurrent use.
func NewBadgerStore(ctx context.Context, config BadgerStoreConfig) (*BadgerStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(config.DBPath)
	opts = opts.WithInMemory(config.InMemory)
	opts = opts.WithLoggingLevel(badger.WARNING)
	// Metadata records are tiny; compression costs more than it saves.
	opts = opts.WithCompression(options.None)

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerStore{db: db}, nil
}

// Healthcheck verifies the database accepts transactions.
func (s *BadgerStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return fmt.Errorf("badger database is closed")
	}
	return nil
}

// Close flushes and closes the database. The store must not be used
// afterwards.
func (s *BadgerStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// update runs fn in a read-write transaction, retrying commit-time
// aborts from BadgerDB's conflict detection.
//
// A retried fn re-reads everything it depends on, so after a lost race
// it observes the winner's writes and typically returns the domain
// ErrConflict the caller expects.
func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("transaction conflicted %d times: %w", maxCommitRetries, err)
}

// ============================================================================
// Transaction-scoped helpers
// ============================================================================

// getFolderTxn reads a folder record inside a transaction.
func getFolderTxn(txn *badger.Txn, folderID uuid.UUID) (*namespace.Folder, error) {
	item, err := txn.Get(keyFolder(folderID))
	if err == badger.ErrKeyNotFound {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "folder not found",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	var folder *namespace.Folder
	err = item.Value(func(val []byte) error {
		decoded, err := decodeFolder(val)
		if err != nil {
			return err
		}
		folder = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}

	return folder, nil
}

// requireFolderTxn reads a folder and verifies ownership.
func requireFolderTxn(txn *badger.Txn, owner namespace.UserID, folderID uuid.UUID) (*namespace.Folder, error) {
	folder, err := getFolderTxn(txn, folderID)
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

// getFileTxn reads a file record inside a transaction.
func getFileTxn(txn *badger.Txn, fileID uuid.UUID) (*namespace.File, error) {
	item, err := txn.Get(keyFile(fileID))
	if err == badger.ErrKeyNotFound {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "file not found",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file *namespace.File
	err = item.Value(func(val []byte) error {
		decoded, err := decodeFile(val)
		if err != nil {
			return err
		}
		file = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}

	return file, nil
}

// requireFileTxn reads a file and verifies ownership.
func requireFileTxn(txn *badger.Txn, owner namespace.UserID, fileID uuid.UUID) (*namespace.File, error) {
	file, err := getFileTxn(txn, fileID)
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

// sameParent reports whether two optional parent references point at the
// same place (both nil, or both the same id).
func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// keyExists reports whether a key is present in the transaction's view.
func keyExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe key: %w", err)
	}
	return true, nil
}

// readUUIDValue copies a 16-byte index value into a uuid.UUID.
func readUUIDValue(item *badger.Item) (uuid.UUID, error) {
	var id uuid.UUID
	err := item.Value(func(val []byte) error {
		if len(val) != 16 {
			return fmt.Errorf("invalid UUID value length: %d", len(val))
		}
		copy(id[:], val)
		return nil
	})
	return id, err
}
