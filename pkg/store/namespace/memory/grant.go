package memory

import (
	"context"
	"sort"
	"time"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// ============================================================================
// Sharing Grants
// ============================================================================

// CreateGrant inserts a grant, enforcing file ownership and the
// one-grant-per-(file, grantee) invariant under the write lock.
func (s *MemoryStore) CreateGrant(
	ctx context.Context,
	grant *namespace.SharingGrant,
) (*namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireFile(grant.GrantorID, grant.FileID); err != nil {
		return nil, err
	}

	for _, existing := range s.grants {
		if existing.FileID == grant.FileID && existing.GranteeID == grant.GranteeID {
			return nil, &namespace.StoreError{
				Code:    namespace.ErrConflict,
				Message: "this file is already shared with this user",
			}
		}
	}

	stored := copyGrant(grant)
	stored.ID = uuid.New()
	s.grants[stored.ID] = stored

	return copyGrant(stored), nil
}

// UpdateGrant replaces the permissions and expiry of an existing grant.
func (s *MemoryStore) UpdateGrant(
	ctx context.Context,
	owner namespace.UserID,
	grantID uuid.UUID,
	permissions namespace.Permission,
	expiresAt time.Time,
) (*namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	grant, err := s.requireGrant(owner, grantID)
	if err != nil {
		return nil, err
	}

	grant.Permissions = permissions
	grant.ExpiresAt = expiresAt

	return copyGrant(grant), nil
}

// DeleteGrant removes a grant owned by owner.
func (s *MemoryStore) DeleteGrant(ctx context.Context, owner namespace.UserID, grantID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireGrant(owner, grantID); err != nil {
		return err
	}

	delete(s.grants, grantID)
	return nil
}

// GetGrant returns a grant by id regardless of grantor.
func (s *MemoryStore) GetGrant(ctx context.Context, grantID uuid.UUID) (*namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, exists := s.grants[grantID]
	if !exists {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "grant not found",
		}
	}

	return copyGrant(grant), nil
}

// FindGrant returns the grant for (fileID, grantee), expired or not.
func (s *MemoryStore) FindGrant(
	ctx context.Context,
	fileID uuid.UUID,
	grantee namespace.UserID,
) (*namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, grant := range s.grants {
		if grant.FileID == fileID && grant.GranteeID == grantee {
			return copyGrant(grant), nil
		}
	}

	return nil, &namespace.StoreError{
		Code:    namespace.ErrNotFound,
		Message: "no grant for this file and user",
	}
}

// GrantsByOwner returns all grants issued by owner, oldest first.
func (s *MemoryStore) GrantsByOwner(ctx context.Context, owner namespace.UserID) ([]namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	grants := []namespace.SharingGrant{}
	for _, grant := range s.grants {
		if grant.GrantorID == owner {
			grants = append(grants, *grant)
		}
	}

	sortGrants(grants)
	return grants, nil
}

// GrantsByGrantee returns all grants received by grantee, oldest first.
func (s *MemoryStore) GrantsByGrantee(ctx context.Context, grantee namespace.UserID) ([]namespace.SharingGrant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	grants := []namespace.SharingGrant{}
	for _, grant := range s.grants {
		if grant.GranteeID == grantee {
			grants = append(grants, *grant)
		}
	}

	sortGrants(grants)
	return grants, nil
}

// DeleteExpiredGrants removes every grant with ExpiresAt <= now.
func (s *MemoryStore) DeleteExpiredGrants(ctx context.Context, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for grantID, grant := range s.grants {
		if !grant.Active(now) {
			delete(s.grants, grantID)
			removed++
		}
	}

	return removed, nil
}

// requireGrant fetches a grant and verifies the caller issued it.
// Callers hold the lock.
func (s *MemoryStore) requireGrant(owner namespace.UserID, grantID uuid.UUID) (*namespace.SharingGrant, error) {
	grant, exists := s.grants[grantID]
	if !exists {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrNotFound,
			Message: "grant not found",
		}
	}
	if grant.GrantorID != owner {
		return nil, &namespace.StoreError{
			Code:    namespace.ErrForbidden,
			Message: "grant was issued by another user",
		}
	}
	return grant, nil
}

// sortGrants orders grants by creation time, then id for stability.
func sortGrants(grants []namespace.SharingGrant) {
	sort.SliceStable(grants, func(i, j int) bool {
		if !grants[i].CreatedAt.Equal(grants[j].CreatedAt) {
			return grants[i].CreatedAt.Before(grants[j].CreatedAt)
		}
		return grants[i].ID.String() < grants[j].ID.String()
	})
}
