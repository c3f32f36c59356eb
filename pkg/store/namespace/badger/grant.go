package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ============================================================================
// Sharing Grants
// ============================================================================

// CreateGrant inserts a grant, enforcing file ownership and the
// one-grant-per-(file, grantee) invariant via the gf: index key.
func (s *BadgerStore) CreateGrant(
	ctx context.Context,
	grant *namespace.SharingGrant,
) (*namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var created *namespace.SharingGrant

	err := s.update(func(txn *badger.Txn) error {
		if _, err := requireFileTxn(txn, grant.GrantorID, grant.FileID); err != nil {
			return err
		}

		indexKey := keyGrantIndex(grant.FileID, grant.GranteeID)
		taken, err := keyExists(txn, indexKey)
		if err != nil {
			return err
		}
		if taken {
			return &namespace.StoreError{
				Code:    namespace.ErrConflict,
				Message: "this file is already shared with this user",
			}
		}

		record := *grant
		record.ID = uuid.New()

		data, err := encodeGrant(&record)
		if err != nil {
			return err
		}
		if err := txn.Set(keyGrant(record.ID), data); err != nil {
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

// UpdateGrant replaces the permissions and expiry of an existing grant.
func (s *BadgerStore) UpdateGrant(
	ctx context.Context,
	owner namespace.UserID,
	grantID uuid.UUID,
	permissions namespace.Permission,
	expiresAt time.Time,
) (*namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *namespace.SharingGrant

	err := s.update(func(txn *badger.Txn) error {
		grant, err := requireGrantTxn(txn, owner, grantID)
		if err != nil {
			return err
		}

		grant.Permissions = permissions
		grant.ExpiresAt = expiresAt

		data, err := encodeGrant(grant)
		if err != nil {
			return err
		}
		if err := txn.Set(keyGrant(grant.ID), data); err != nil {
			return err
		}

		updated = grant
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteGrant removes a grant issued by owner, including its index key.
func (s *BadgerStore) DeleteGrant(ctx context.Context, owner namespace.UserID, grantID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.update(func(txn *badger.Txn) error {
		grant, err := requireGrantTxn(txn, owner, grantID)
		if err != nil {
			return err
		}

		if err := txn.Delete(keyGrantIndex(grant.FileID, grant.GranteeID)); err != nil {
			return err
		}
		return txn.Delete(keyGrant(grantID))
	})
}

// GetGrant returns a grant by id regardless of grantor.
func (s *BadgerStore) GetGrant(ctx context.Context, grantID uuid.UUID) (*namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var grant *namespace.SharingGrant
	err := s.db.View(func(txn *badger.Txn) error {
		found, err := getGrantTxn(txn, grantID)
		if err != nil {
			return err
		}
		grant = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return grant, nil
}

// FindGrant returns the grant for (fileID, grantee), expired or not.
//
// This is a point lookup on the gf: index rather than a scan.
func (s *BadgerStore) FindGrant(
	ctx context.Context,
	fileID uuid.UUID,
	grantee namespace.UserID,
) (*namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var grant *namespace.SharingGrant
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyGrantIndex(fileID, grantee))
		if err == badger.ErrKeyNotFound {
			return &namespace.StoreError{
				Code:    namespace.ErrNotFound,
				Message: "no grant for this file and user",
			}
		}
		if err != nil {
			return fmt.Errorf("failed to read grant index: %w", err)
		}

		grantID, err := readUUIDValue(item)
		if err != nil {
			return err
		}

		found, err := getGrantTxn(txn, grantID)
		if err != nil {
			return err
		}
		grant = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return grant, nil
}

// GrantsByOwner returns all grants issued by owner, oldest first.
func (s *BadgerStore) GrantsByOwner(ctx context.Context, owner namespace.UserID) ([]namespace.SharingGrant, error) {
	return s.scanGrants(ctx, func(g *namespace.SharingGrant) bool {
		return g.GrantorID == owner
	})
}

// GrantsByGrantee returns all grants received by grantee, oldest first.
func (s *BadgerStore) GrantsByGrantee(ctx context.Context, grantee namespace.UserID) ([]namespace.SharingGrant, error) {
	return s.scanGrants(ctx, func(g *namespace.SharingGrant) bool {
		return g.GranteeID == grantee
	})
}

// DeleteExpiredGrants removes every grant with ExpiresAt <= now.
func (s *BadgerStore) DeleteExpiredGrants(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	removed := 0

	err := s.update(func(txn *badger.Txn) error {
		removed = 0

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGrant)

		it := txn.NewIterator(opts)
		defer it.Close()

		type doomed struct {
			grantID  uuid.UUID
			fileID   uuid.UUID
			grantee  namespace.UserID
		}
		var expired []doomed

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				grant, err := decodeGrant(val)
				if err != nil {
					return err
				}
				if !grant.Active(now) {
					expired = append(expired, doomed{
						grantID: grant.ID,
						fileID:  grant.FileID,
						grantee: grant.GranteeID,
					})
				}
				return nil
			})
			if err != nil {
				return err
			}
		}

		// Deleting while iterating the same prefix is unsafe, so the
		// deletes run after the scan.
		for _, d := range expired {
			if err := txn.Delete(keyGrantIndex(d.fileID, d.grantee)); err != nil {
				return err
			}
			if err := txn.Delete(keyGrant(d.grantID)); err != nil {
				return err
			}
			removed++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// scanGrants collects the grants matching keep, ordered by creation
// time then id.
func (s *BadgerStore) scanGrants(ctx context.Context, keep func(*namespace.SharingGrant) bool) ([]namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	grants := []namespace.SharingGrant{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixGrant)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				grant, err := decodeGrant(val)
				if err != nil {
					return err
				}
				if keep(grant) {
					grants = append(grants, *grant)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(grants, func(i, j int) bool {
		if !grants[i].CreatedAt.Equal(grants[j].CreatedAt) {
			return grants[i].CreatedAt.Before(grants[j].CreatedAt)
		}
		return grants[i].ID.String() < grants[j].ID.String()
	})

	return grants, nil
}

// getGrantTxn reads a grant record inside a transaction.
func getGrantTxn(txn *badger.Txn, grantID uuid.UUID) (*namespace.SharingGrant, error) {
	item, err := txn.Get(keyGrant(grantID))
	if err == badger.ErrKeyNotFound {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "grant not found",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read grant: %w", err)
	}

	var grant *namespace.SharingGrant
	err = item.Value(func(val []byte) error {
		decoded, err := decodeGrant(val)
		if err != nil {
			return err
		}
		grant = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}

	return grant, nil
}

// requireGrantTxn reads a grant and verifies the caller issued it.
func requireGrantTxn(txn *badger.Txn, owner namespace.UserID, grantID uuid.UUID) (*namespace.SharingGrant, error) {
	grant, err := getGrantTxn(txn, grantID)
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

// deleteGrantsForFileTxn removes all grants on one file inside a
// transaction, returning how many were removed.
func deleteGrantsForFileTxn(txn *badger.Txn, fileID uuid.UUID) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyGrantIndexScan(fileID)

	it := txn.NewIterator(opts)

	var grantIDs []uuid.UUID
	var indexKeys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		grantID, err := readUUIDValue(it.Item())
		if err != nil {
			it.Close()
			return 0, err
		}
		grantIDs = append(grantIDs, grantID)
		indexKeys = append(indexKeys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for i, grantID := range grantIDs {
		if err := txn.Delete(indexKeys[i]); err != nil {
			return 0, err
		}
		if err := txn.Delete(keyGrant(grantID)); err != nil {
			return 0, err
		}
	}

	return len(grantIDs), nil
}
