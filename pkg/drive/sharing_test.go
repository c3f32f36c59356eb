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

func newTestSharing(t *testing.T) (*Sharing, namespace.Store, *StaticUserDirectory, *fakeClock) {
	t.Helper()
	store := memory.NewMemoryStore()
	users := NewStaticUserDirectory(nil)
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewSharing(store, users, clock), store, users, clock
}

func createOwnedFile(t *testing.T, store namespace.Store, owner namespace.UserID, title string) *namespace.File {
	t.Helper()
	file, err := store.CreateFile(context.Background(), owner, &namespace.File{
		Title:   title,
		BlobKey: "blobs/" + uuid.NewString(),
	})
	require.NoError(t, err)
	return file
}

func TestSharingCreateGrant(t *testing.T) {
	ctx := context.Background()

	t.Run("Basic", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		owner := uuid.New()
		grantee := uuid.New()
		users.Add("u2@example.com", grantee)

		file := createOwnedFile(t, store, owner, "report.txt")

		grant, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.NoError(t, err)
		require.Equal(t, grantee, grant.GranteeID)
		require.True(t, grant.CreatedAt.Equal(clock.Now()))
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		svc, store, _, clock := newTestSharing(t)
		owner := uuid.New()

		file := createOwnedFile(t, store, owner, "report.txt")

		_, err := svc.CreateGrant(ctx, owner, file.ID, "nobody@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.True(t, namespace.IsCode(err, namespace.ErrNotFound))
	})

	t.Run("SelfShare", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		owner := uuid.New()
		users.Add("me@example.com", owner)

		file := createOwnedFile(t, store, owner, "report.txt")

		_, err := svc.CreateGrant(ctx, owner, file.ID, "me@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.True(t, namespace.IsCode(err, namespace.ErrInvalidArgument))
	})

	t.Run("PastExpiry", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		owner := uuid.New()
		users.Add("u2@example.com", uuid.New())

		file := createOwnedFile(t, store, owner, "report.txt")

		_, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(-time.Second))
		require.True(t, namespace.IsCode(err, namespace.ErrInvalidArgument))

		_, err = svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now())
		require.True(t, namespace.IsCode(err, namespace.ErrInvalidArgument))
	})

	t.Run("NotFileOwner", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		users.Add("u2@example.com", uuid.New())

		file := createOwnedFile(t, store, uuid.New(), "report.txt")

		_, err := svc.CreateGrant(ctx, uuid.New(), file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.True(t, namespace.IsCode(err, namespace.ErrForbidden))
	})

	t.Run("DuplicateActiveGrant", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		owner := uuid.New()
		users.Add("u2@example.com", uuid.New())

		file := createOwnedFile(t, store, owner, "report.txt")

		_, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.True(t, namespace.IsCode(err, namespace.ErrConflict))
	})

	t.Run("ExpiredGrantDoesNotBlockResharing", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		owner := uuid.New()
		users.Add("u2@example.com", uuid.New())

		file := createOwnedFile(t, store, owner, "report.txt")

		_, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.NoError(t, err)

		clock.Advance(2 * time.Hour)

		// The expired grant is swept before the new one is inserted.
		_, err = svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.NoError(t, err)
	})
}

func TestSharingUpdateGrant(t *testing.T) {
	ctx := context.Background()

	t.Run("ReplacesPermissionsAndExpiry", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		owner := uuid.New()
		users.Add("u2@example.com", uuid.New())

		file := createOwnedFile(t, store, owner, "report.txt")
		grant, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.NoError(t, err)

		newExpiry := clock.Now().Add(24 * time.Hour)
		updated, err := svc.UpdateGrant(ctx, owner, grant.ID,
			namespace.PermissionRead|namespace.PermissionRename, newExpiry)
		require.NoError(t, err)
		require.True(t, updated.Permissions.Has(namespace.PermissionRename))
		require.True(t, updated.ExpiresAt.Equal(newExpiry))
	})

	t.Run("PastExpiry", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		owner := uuid.New()
		users.Add("u2@example.com", uuid.New())

		file := createOwnedFile(t, store, owner, "report.txt")
		grant, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = svc.UpdateGrant(ctx, owner, grant.ID,
			namespace.PermissionRead, clock.Now().Add(-time.Hour))
		require.True(t, namespace.IsCode(err, namespace.ErrInvalidArgument))
	})

	t.Run("ForeignGrantor", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		owner := uuid.New()
		users.Add("u2@example.com", uuid.New())

		file := createOwnedFile(t, store, owner, "report.txt")
		grant, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.NoError(t, err)

		_, err = svc.UpdateGrant(ctx, uuid.New(), grant.ID,
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.True(t, namespace.IsCode(err, namespace.ErrForbidden))
	})
}

func TestSharingRevokeGrant(t *testing.T) {
	ctx := context.Background()

	svc, store, users, clock := newTestSharing(t)
	owner := uuid.New()
	grantee := uuid.New()
	users.Add("u2@example.com", grantee)

	file := createOwnedFile(t, store, owner, "report.txt")
	grant, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
		namespace.PermissionRead, clock.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, svc.RevokeGrant(ctx, owner, grant.ID))

	ok, err := svc.CheckAccess(ctx, grantee, file.ID, namespace.PermissionRead)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSharingCheckAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("GrantedPermission", func(t *testing.T) {
		svc, store, users, clock := newTestSharing(t)
		owner := uuid.New()
		grantee := uuid.New()
		users.Add("u2@example.com", grantee)

		file := createOwnedFile(t, store, owner, "report.txt")
		_, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
			namespace.PermissionRead, clock.Now().Add(time.Hour))
		require.NoError(t, err)

		ok, err := svc.CheckAccess(ctx, grantee, file.ID, namespace.PermissionRead)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = svc.CheckAccess(ctx, grantee, file.ID, namespace.PermissionDelete)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("NoGrant", func(t *testing.T) {
		svc, store, _, _ := newTestSharing(t)
		file := createOwnedFile(t, store, uuid.New(), "report.txt")

		ok, err := svc.CheckAccess(ctx, uuid.New(), file.ID, namespace.PermissionRead)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

// TestSharingExpiryLifecycle walks the share-then-expire scenario end
// to end: access is granted, the clock passes the expiry, and every
// read path stops showing the grant without any explicit cleanup call.
func TestSharingExpiryLifecycle(t *testing.T) {
	ctx := context.Background()

	svc, store, users, clock := newTestSharing(t)
	owner := uuid.New()
	grantee := uuid.New()
	users.Add("u2@example.com", grantee)

	file := createOwnedFile(t, store, owner, "report.txt")

	_, err := svc.CreateGrant(ctx, owner, file.ID, "u2@example.com",
		namespace.PermissionRead, clock.Now().Add(time.Hour))
	require.NoError(t, err)

	ok, err := svc.CheckAccess(ctx, grantee, file.ID, namespace.PermissionRead)
	require.NoError(t, err)
	require.True(t, ok)

	issued, err := svc.ListActiveGrantsForOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, issued, 1)

	clock.Advance(2 * time.Hour)

	ok, err = svc.CheckAccess(ctx, grantee, file.ID, namespace.PermissionRead)
	require.NoError(t, err)
	require.False(t, ok)

	received, err := svc.ListActiveGrantsForGrantee(ctx, grantee)
	require.NoError(t, err)
	require.Empty(t, received)

	issued, err = svc.ListActiveGrantsForOwner(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, issued)

	// The sweep physically removed the grant, not just hid it.
	_, err = store.FindGrant(ctx, file.ID, grantee)
	require.True(t, namespace.IsCode(err, namespace.ErrNotFound))
}
