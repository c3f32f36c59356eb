package drive

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/anvarov/drivebox/pkg/store/namespace/memory"
)

func newTestGuard(t *testing.T) (*Guard, namespace.Store, *fakeClock) {
	t.Helper()
	store := memory.NewMemoryStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewGuard(store, clock), store, clock
}

func TestGuardOwnership(t *testing.T) {
	ctx := context.Background()
	guard, store, _ := newTestGuard(t)
	owner := uuid.New()
	stranger := uuid.New()

	folder, err := store.CreateFolder(ctx, owner, nil, "Documents")
	require.NoError(t, err)
	file := createOwnedFile(t, store, owner, "report.txt")

	require.True(t, guard.IsFolderOwner(ctx, owner, folder.ID))
	require.False(t, guard.IsFolderOwner(ctx, stranger, folder.ID))
	require.False(t, guard.IsFolderOwner(ctx, owner, uuid.New()))

	require.True(t, guard.IsFileOwner(ctx, owner, file.ID))
	require.False(t, guard.IsFileOwner(ctx, stranger, file.ID))
}

func TestGuardIsAncestorOwnedBy(t *testing.T) {
	ctx := context.Background()
	guard, store, _ := newTestGuard(t)
	owner := uuid.New()

	top, err := store.CreateFolder(ctx, owner, nil, "a")
	require.NoError(t, err)
	leaf, err := store.CreateFolder(ctx, owner, &top.ID, "b")
	require.NoError(t, err)

	require.True(t, guard.IsAncestorOwnedBy(ctx, owner, leaf.ID))
	require.False(t, guard.IsAncestorOwnedBy(ctx, uuid.New(), leaf.ID))
	require.False(t, guard.IsAncestorOwnedBy(ctx, owner, uuid.New()))
}

func TestGuardHasGrantPermission(t *testing.T) {
	ctx := context.Background()
	guard, store, clock := newTestGuard(t)
	owner := uuid.New()
	grantee := uuid.New()

	file := createOwnedFile(t, store, owner, "report.txt")

	grant, err := store.CreateGrant(ctx, &namespace.SharingGrant{
		FileID:      file.ID,
		GrantorID:   owner,
		GranteeID:   grantee,
		Permissions: namespace.PermissionRead | namespace.PermissionRename,
		CreatedAt:   clock.Now(),
		ExpiresAt:   clock.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.True(t, guard.IsGrantOwner(ctx, owner, grant.ID))
	require.False(t, guard.IsGrantOwner(ctx, grantee, grant.ID))

	require.True(t, guard.HasGrantPermission(ctx, grantee, file.ID, namespace.PermissionRead))
	require.True(t, guard.HasGrantPermission(ctx, grantee, file.ID, namespace.PermissionRename))
	require.False(t, guard.HasGrantPermission(ctx, grantee, file.ID, namespace.PermissionDelete))
	require.False(t, guard.HasGrantPermission(ctx, uuid.New(), file.ID, namespace.PermissionRead))

	clock.Advance(2 * time.Hour)
	require.False(t, guard.HasGrantPermission(ctx, grantee, file.ID, namespace.PermissionRead))
}
