package drive

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/anvarov/drivebox/internal/logger"
	"github.com/anvarov/drivebox/pkg/store/namespace"
)

// Sharing is the grant ledger service: time-bounded, permission-scoped
// access to files for users other than the owner.
//
// Expiry is lazy. No timer removes expired grants; instead every read
// path sweeps them first, so callers never observe an expired grant
// regardless of when the last mutation happened.
type Sharing struct {
	store namespace.Store
	users UserDirectory
	clock namespace.Clock
}

// NewSharing creates the sharing service.
func NewSharing(store namespace.Store, users UserDirectory, clock namespace.Clock) *Sharing {
	return &Sharing{
		store: store,
		users: users,
		clock: clock,
	}
}

// CreateGrant shares a file with the user behind granteeEmail.
//
// Fails with Forbidden when owner does not own the file, NotFound when
// no user has the email, InvalidArgument on self-shares or an expiry
// that is not in the future, and Conflict when an active grant for the
// (file, grantee) pair already exists.
func (s *Sharing) CreateGrant(
	ctx context.Context,
	owner namespace.UserID,
	fileID uuid.UUID,
	granteeEmail string,
	permissions namespace.Permission,
	expiresAt time.Time,
) (*namespace.SharingGrant, error) {
	grantee, err := s.users.LookupEmail(ctx, granteeEmail)
	if err != nil {
		return nil, err
	}

	if grantee == owner {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrInvalidArgument,
			Message: "cannot share a file with its owner",
		}
	}

	now := s.clock.Now()
	if !expiresAt.After(now) {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrInvalidArgument,
			Message: "grant expiry must be in the future",
		}
	}

	// Sweep first so an expired leftover for the same pair does not
	// block the new grant.
	s.sweep(ctx)

	return s.store.CreateGrant(ctx, &namespace.SharingGrant{
		FileID:      fileID,
		GrantorID:   owner,
		GranteeID:   grantee,
		Permissions: permissions,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	})
}

// UpdateGrant replaces the permissions and expiry of a grant owned by
// owner. The new expiry must be in the future.
func (s *Sharing) UpdateGrant(
	ctx context.Context,
	owner namespace.UserID,
	grantID uuid.UUID,
	permissions namespace.Permission,
	expiresAt time.Time,
) (*namespace.SharingGrant, error) {
	if !expiresAt.After(s.clock.Now()) {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrInvalidArgument,
			Message: "grant expiry must be in the future",
		}
	}

	return s.store.UpdateGrant(ctx, owner, grantID, permissions, expiresAt)
}

// RevokeGrant deletes a grant owned by owner.
func (s *Sharing) RevokeGrant(ctx context.Context, owner namespace.UserID, grantID uuid.UUID) error {
	return s.store.DeleteGrant(ctx, owner, grantID)
}

// CheckAccess reports whether grantee holds an active grant on the
// file that includes the required permission.
func (s *Sharing) CheckAccess(ctx context.Context, grantee namespace.UserID, fileID uuid.UUID, required namespace.Permission) (bool, error) {
	s.sweep(ctx)

	grant, err := s.store.FindGrant(ctx, fileID, grantee)
	if err != nil {
		if namespace.IsCode(err, namespace.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	return grant.Active(s.clock.Now()) && grant.Permissions.Has(required), nil
}

// ListActiveGrantsForOwner returns all active grants on files owned by
// owner, oldest first.
func (s *Sharing) ListActiveGrantsForOwner(ctx context.Context, owner namespace.UserID) ([]namespace.SharingGrant, error) {
	s.sweep(ctx)

	grants, err := s.store.GrantsByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.activeOnly(grants), nil
}

// ListActiveGrantsForGrantee returns all active grants received by
// grantee, oldest first. This is the "shared with me" view.
func (s *Sharing) ListActiveGrantsForGrantee(ctx context.Context, grantee namespace.UserID) ([]namespace.SharingGrant, error) {
	s.sweep(ctx)

	grants, err := s.store.GrantsByGrantee(ctx, grantee)
	if err != nil {
		return nil, err
	}
	return s.activeOnly(grants), nil
}

// activeOnly filters out grants the sweep may have missed.
func (s *Sharing) activeOnly(grants []namespace.SharingGrant) []namespace.SharingGrant {
	now := s.clock.Now()
	active := grants[:0]
	for _, grant := range grants {
		if grant.Active(now) {
			active = append(active, grant)
		}
	}
	return active
}

// SweepExpired removes every grant whose expiry has passed and returns
// how many were deleted. Sharing reads already sweep lazily; this is
// for callers that want to reclaim space on a schedule.
func (s *Sharing) SweepExpired(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredGrants(ctx, s.clock.Now())
}

// sweep removes expired grants. A failed sweep only delays removal, so
// it is logged and the read proceeds; expiry filtering on the read
// path still hides anything the sweep missed.
func (s *Sharing) sweep(ctx context.Context) {
	removed, err := s.store.DeleteExpiredGrants(ctx, s.clock.Now())
	if err != nil {
		logger.Warn("failed to sweep expired grants: %v", err)
		return
	}
	if removed > 0 {
		logger.Debug("swept %d expired grants", removed)
	}
}
