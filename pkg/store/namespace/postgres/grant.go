package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// ============================================================================
// Sharing Grants
// ============================================================================

// CreateGrant inserts a grant, enforcing file ownership and the
// one-grant-per-(file, grantee) invariant via the table's unique
// constraint.
func (s *PostgresStore) CreateGrant(
	ctx context.Context,
	grant *namespace.SharingGrant,
) (*namespace.SharingGrant, error) {
	record := *grant
	record.ID = uuid.New()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireFileTx(ctx, tx, record.GrantorID, record.FileID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO sharing_grants (id, file_id, grantor_id, grantee_id, permissions, created_at, expires_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			record.ID, record.FileID, record.GrantorID, record.GranteeID,
			int16(record.Permissions), record.CreatedAt, record.ExpiresAt)
		if err != nil {
			return conflictOr(err, "this file is already shared with this user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// UpdateGrant replaces the permissions and expiry of an existing grant.
func (s *PostgresStore) UpdateGrant(
	ctx context.Context,
	owner namespace.UserID,
	grantID uuid.UUID,
	permissions namespace.Permission,
	expiresAt time.Time,
) (*namespace.SharingGrant, error) {
	var updated *namespace.SharingGrant

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		grant, err := requireGrantTx(ctx, tx, owner, grantID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE sharing_grants SET permissions = $1, expires_at = $2 WHERE id = $3",
			int16(permissions), expiresAt, grantID)
		if err != nil {
			return fmt.Errorf("failed to update grant: %w", err)
		}

		grant.Permissions = permissions
		grant.ExpiresAt = expiresAt
		updated = grant
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteGrant removes a grant issued by owner.
func (s *PostgresStore) DeleteGrant(ctx context.Context, owner namespace.UserID, grantID uuid.UUID) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := requireGrantTx(ctx, tx, owner, grantID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			"DELETE FROM sharing_grants WHERE id = $1", grantID)
		if err != nil {
			return fmt.Errorf("failed to delete grant: %w", err)
		}
		return nil
	})
}

// GetGrant returns a grant by id regardless of grantor.
func (s *PostgresStore) GetGrant(ctx context.Context, grantID uuid.UUID) (*namespace.SharingGrant, error) {
	row := s.db.QueryRowContext(ctx,
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

// FindGrant returns the grant for (fileID, grantee), expired or not.
func (s *PostgresStore) FindGrant(
	ctx context.Context,
	fileID uuid.UUID,
	grantee namespace.UserID,
) (*namespace.SharingGrant, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+grantColumns+" FROM sharing_grants WHERE file_id = $1 AND grantee_id = $2",
		fileID, grantee)

	grant, err := scanGrant(row)
	if err == sql.ErrNoRows {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "no grant for this file and user",
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find grant: %w", err)
	}
	return grant, nil
}

// GrantsByOwner returns all grants issued by owner, oldest first.
func (s *PostgresStore) GrantsByOwner(ctx context.Context, owner namespace.UserID) ([]namespace.SharingGrant, error) {
	return s.queryGrants(ctx,
		"SELECT "+grantColumns+" FROM sharing_grants WHERE grantor_id = $1 ORDER BY created_at, id",
		owner)
}

// GrantsByGrantee returns all grants received by grantee, oldest first.
func (s *PostgresStore) GrantsByGrantee(ctx context.Context, grantee namespace.UserID) ([]namespace.SharingGrant, error) {
	return s.queryGrants(ctx,
		"SELECT "+grantColumns+" FROM sharing_grants WHERE grantee_id = $1 ORDER BY created_at, id",
		grantee)
}

// DeleteExpiredGrants removes every grant with ExpiresAt <= now.
func (s *PostgresStore) DeleteExpiredGrants(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM sharing_grants WHERE expires_at <= $1", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired grants: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// queryGrants runs one grant listing query.
func (s *PostgresStore) queryGrants(ctx context.Context, query string, arg any) ([]namespace.SharingGrant, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	grants := []namespace.SharingGrant{}
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, *grant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return grants, nil
}
