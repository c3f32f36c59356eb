package drive

import (
	"context"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
)

// Guard provides authorization predicates over the namespace store.
//
// Every predicate is side-effect free: it reads, decides, and mutates
// nothing, so callers can consult it before acting without changing
// observable state. Lookup failures answer false rather than erroring;
// a caller that needs the distinction performs the lookup itself.
type Guard struct {
	store namespace.Store
	clock namespace.Clock
}

// NewGuard creates a guard over the given store and clock.
func NewGuard(store namespace.Store, clock namespace.Clock) *Guard {
	return &Guard{store: store, clock: clock}
}

// IsFolderOwner reports whether actor owns the folder.
func (g *Guard) IsFolderOwner(ctx context.Context, actor namespace.UserID, folderID uuid.UUID) bool {
	folder, err := g.store.GetFolder(ctx, folderID)
	return err == nil && folder.OwnerID == actor
}

// IsFileOwner reports whether actor owns the file.
func (g *Guard) IsFileOwner(ctx context.Context, actor namespace.UserID, fileID uuid.UUID) bool {
	file, err := g.store.GetFile(ctx, fileID)
	return err == nil && file.OwnerID == actor
}

// IsGrantOwner reports whether actor issued the grant.
func (g *Guard) IsGrantOwner(ctx context.Context, actor namespace.UserID, grantID uuid.UUID) bool {
	grant, err := g.store.GetGrant(ctx, grantID)
	return err == nil && grant.GrantorID == actor
}

// IsAncestorOwnedBy reports whether the folder and every ancestor up
// to the root are owned by actor. Used to validate a destination
// before attaching a child.
func (g *Guard) IsAncestorOwnedBy(ctx context.Context, actor namespace.UserID, folderID uuid.UUID) bool {
	cursor := &folderID
	for cursor != nil {
		folder, err := g.store.GetFolder(ctx, *cursor)
		if err != nil || folder.OwnerID != actor {
			return false
		}
		cursor = folder.ParentID
	}
	return true
}

// HasGrantPermission reports whether actor holds an active grant on
// the file that includes the required permission.
func (g *Guard) HasGrantPermission(ctx context.Context, actor namespace.UserID, fileID uuid.UUID, required namespace.Permission) bool {
	grant, err := g.store.FindGrant(ctx, fileID, actor)
	if err != nil {
		return false
	}
	return grant.Active(g.clock.Now()) && grant.Permissions.Has(required)
}
