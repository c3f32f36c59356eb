package drive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	blobmemory "github.com/anvarov/drivebox/pkg/store/blob/memory"
	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/anvarov/drivebox/pkg/store/namespace/memory"
)

func newTestNamespace(t *testing.T) (*Namespace, namespace.Store, *blobmemory.MemoryBlobStore, *fakeClock) {
	t.Helper()
	store := memory.NewMemoryStore()
	blobs := blobmemory.NewMemoryBlobStore()
	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewNamespace(store, blobs, clock), store, blobs, clock
}

func uploadTestFile(t *testing.T, svc *Namespace, owner namespace.UserID, folderID *uuid.UUID, title, body string) *namespace.File {
	t.Helper()
	file, err := svc.UploadFile(context.Background(), owner, folderID, title,
		strings.NewReader(body), int64(len(body)), "txt")
	require.NoError(t, err)
	return file
}

func TestNamespaceUploadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("StoresBlobAndMetadata", func(t *testing.T) {
		svc, store, blobs, _ := newTestNamespace(t)
		owner := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "report", "file body")
		require.Equal(t, "report", file.Title)
		require.Equal(t, int64(9), file.SizeBytes)
		require.Equal(t, "txt", file.Extension)

		data, ok := blobs.Contents(file.BlobKey)
		require.True(t, ok)
		require.Equal(t, []byte("file body"), data)

		fetched, err := store.GetFile(ctx, file.ID)
		require.NoError(t, err)
		require.Equal(t, file.BlobKey, fetched.BlobKey)
	})

	t.Run("SanitizesTitle", func(t *testing.T) {
		svc, _, _, _ := newTestNamespace(t)

		file := uploadTestFile(t, svc, uuid.New(), nil, "  <b>report</b>  ", "x")
		require.Equal(t, "report", file.Title)
	})

	t.Run("RejectsEmptyTitle", func(t *testing.T) {
		svc, _, blobs, _ := newTestNamespace(t)

		_, err := svc.UploadFile(ctx, uuid.New(), nil, "<p></p>", strings.NewReader("x"), 1, "txt")
		require.True(t, namespace.IsCode(err, namespace.ErrInvalidArgument))
		require.Zero(t, blobs.Len())
	})

	t.Run("BlobFailureSurfacesAsStorageUnavailable", func(t *testing.T) {
		svc, store, blobs, _ := newTestNamespace(t)
		owner := uuid.New()
		blobs.FailPuts = true

		_, err := svc.UploadFile(ctx, owner, nil, "report", strings.NewReader("x"), 1, "txt")
		require.True(t, namespace.IsCode(err, namespace.ErrStorageUnavailable))

		entries, err := store.ListChildren(ctx, owner, nil)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("MetadataConflictRollsBackBlob", func(t *testing.T) {
		svc, _, blobs, _ := newTestNamespace(t)
		owner := uuid.New()

		uploadTestFile(t, svc, owner, nil, "report", "first")
		require.Equal(t, 1, blobs.Len())

		_, err := svc.UploadFile(ctx, owner, nil, "report", strings.NewReader("second"), 6, "txt")
		require.True(t, namespace.IsCode(err, namespace.ErrConflict))

		// Only the first upload's blob remains.
		require.Equal(t, 1, blobs.Len())
	})

	t.Run("MissingFolderRollsBackBlob", func(t *testing.T) {
		svc, _, blobs, _ := newTestNamespace(t)
		missing := uuid.New()

		_, err := svc.UploadFile(ctx, uuid.New(), &missing, "report", strings.NewReader("x"), 1, "txt")
		require.True(t, namespace.IsCode(err, namespace.ErrNotFound))
		require.Zero(t, blobs.Len())
	})
}

func TestNamespaceDeleteFile(t *testing.T) {
	ctx := context.Background()

	t.Run("RemovesMetadataAndBlob", func(t *testing.T) {
		svc, store, blobs, _ := newTestNamespace(t)
		owner := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "report", "body")

		require.NoError(t, svc.DeleteFile(ctx, owner, file.ID))

		_, err := store.GetFile(ctx, file.ID)
		require.True(t, namespace.IsCode(err, namespace.ErrNotFound))
		require.Zero(t, blobs.Len())
	})

	t.Run("FailedBlobDeleteStillRemovesMetadata", func(t *testing.T) {
		svc, store, blobs, _ := newTestNamespace(t)
		owner := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "report", "body")
		blobs.FailDeletes = true

		require.NoError(t, svc.DeleteFile(ctx, owner, file.ID))

		// Metadata is gone; the blob is an orphan, never the reverse.
		_, err := store.GetFile(ctx, file.ID)
		require.True(t, namespace.IsCode(err, namespace.ErrNotFound))
		require.Equal(t, 1, blobs.Len())
	})

	t.Run("GranteeWithDeletePermission", func(t *testing.T) {
		svc, store, _, clock := newTestNamespace(t)
		owner := uuid.New()
		grantee := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "report", "body")
		_, err := store.CreateGrant(ctx, &namespace.SharingGrant{
			FileID:      file.ID,
			GrantorID:   owner,
			GranteeID:   grantee,
			Permissions: namespace.PermissionRead | namespace.PermissionDelete,
			CreatedAt:   clock.Now(),
			ExpiresAt:   clock.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		require.NoError(t, svc.DeleteFile(ctx, grantee, file.ID))

		_, err = store.GetFile(ctx, file.ID)
		require.True(t, namespace.IsCode(err, namespace.ErrNotFound))
	})

	t.Run("GranteeWithoutDeletePermission", func(t *testing.T) {
		svc, store, _, clock := newTestNamespace(t)
		owner := uuid.New()
		grantee := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "report", "body")
		_, err := store.CreateGrant(ctx, &namespace.SharingGrant{
			FileID:      file.ID,
			GrantorID:   owner,
			GranteeID:   grantee,
			Permissions: namespace.PermissionRead,
			CreatedAt:   clock.Now(),
			ExpiresAt:   clock.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		err = svc.DeleteFile(ctx, grantee, file.ID)
		require.True(t, namespace.IsCode(err, namespace.ErrForbidden))
	})

	t.Run("StrangerForbidden", func(t *testing.T) {
		svc, _, _, _ := newTestNamespace(t)
		owner := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "report", "body")

		err := svc.DeleteFile(ctx, uuid.New(), file.ID)
		require.True(t, namespace.IsCode(err, namespace.ErrForbidden))
	})
}

func TestNamespaceDeleteFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("CascadeRemovesBlobs", func(t *testing.T) {
		svc, store, blobs, _ := newTestNamespace(t)
		owner := uuid.New()

		folder, err := svc.CreateFolder(ctx, owner, nil, "Documents")
		require.NoError(t, err)
		sub, err := svc.CreateFolder(ctx, owner, &folder.ID, "Taxes")
		require.NoError(t, err)

		uploadTestFile(t, svc, owner, &folder.ID, "a", "aaa")
		uploadTestFile(t, svc, owner, &sub.ID, "b", "bbb")
		require.Equal(t, 2, blobs.Len())

		result, err := svc.DeleteFolder(ctx, owner, folder.ID)
		require.NoError(t, err)
		require.Equal(t, 2, result.Folders)
		require.Len(t, result.Files, 2)
		require.Zero(t, blobs.Len())

		entries, err := store.ListChildren(ctx, owner, nil)
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}

func TestNamespaceRenameFile(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerRename", func(t *testing.T) {
		svc, _, _, _ := newTestNamespace(t)
		owner := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "draft", "x")

		renamed, err := svc.RenameFile(ctx, owner, file.ID, "<i>final</i>")
		require.NoError(t, err)
		require.Equal(t, "final", renamed.Title)
	})

	t.Run("GranteeWithRenamePermission", func(t *testing.T) {
		svc, store, _, clock := newTestNamespace(t)
		owner := uuid.New()
		grantee := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "draft", "x")
		_, err := store.CreateGrant(ctx, &namespace.SharingGrant{
			FileID:      file.ID,
			GrantorID:   owner,
			GranteeID:   grantee,
			Permissions: namespace.PermissionRename,
			CreatedAt:   clock.Now(),
			ExpiresAt:   clock.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		renamed, err := svc.RenameFile(ctx, grantee, file.ID, "final")
		require.NoError(t, err)
		require.Equal(t, "final", renamed.Title)
		require.Equal(t, owner, renamed.OwnerID)
	})

	t.Run("GranteeRenameAfterExpiry", func(t *testing.T) {
		svc, store, _, clock := newTestNamespace(t)
		owner := uuid.New()
		grantee := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "draft", "x")
		_, err := store.CreateGrant(ctx, &namespace.SharingGrant{
			FileID:      file.ID,
			GrantorID:   owner,
			GranteeID:   grantee,
			Permissions: namespace.PermissionRename,
			CreatedAt:   clock.Now(),
			ExpiresAt:   clock.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		clock.Advance(2 * time.Hour)

		_, err = svc.RenameFile(ctx, grantee, file.ID, "final")
		require.True(t, namespace.IsCode(err, namespace.ErrForbidden))
	})
}

func TestNamespaceDownloadURL(t *testing.T) {
	ctx := context.Background()

	t.Run("OwnerDownload", func(t *testing.T) {
		svc, _, _, _ := newTestNamespace(t)
		owner := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "report", "body")

		url, err := svc.DownloadURL(ctx, owner, file.ID, 15*time.Minute)
		require.NoError(t, err)
		require.Contains(t, url, "report.txt")
	})

	t.Run("GranteeWithReadPermission", func(t *testing.T) {
		svc, store, _, clock := newTestNamespace(t)
		owner := uuid.New()
		grantee := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "report", "body")
		_, err := store.CreateGrant(ctx, &namespace.SharingGrant{
			FileID:      file.ID,
			GrantorID:   owner,
			GranteeID:   grantee,
			Permissions: namespace.PermissionRead,
			CreatedAt:   clock.Now(),
			ExpiresAt:   clock.Now().Add(time.Hour),
		})
		require.NoError(t, err)

		url, err := svc.DownloadURL(ctx, grantee, file.ID, 15*time.Minute)
		require.NoError(t, err)
		require.NotEmpty(t, url)
	})

	t.Run("StrangerForbidden", func(t *testing.T) {
		svc, _, _, _ := newTestNamespace(t)
		owner := uuid.New()

		file := uploadTestFile(t, svc, owner, nil, "report", "body")

		_, err := svc.DownloadURL(ctx, uuid.New(), file.ID, 15*time.Minute)
		require.True(t, namespace.IsCode(err, namespace.ErrForbidden))
	})

	t.Run("MissingFile", func(t *testing.T) {
		svc, _, _, _ := newTestNamespace(t)

		_, err := svc.DownloadURL(ctx, uuid.New(), uuid.New(), 15*time.Minute)
		require.True(t, namespace.IsCode(err, namespace.ErrNotFound))
	})
}

func TestNamespaceCreateFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("SanitizesTitle", func(t *testing.T) {
		svc, _, _, _ := newTestNamespace(t)

		folder, err := svc.CreateFolder(ctx, uuid.New(), nil, " <div>Documents</div> ")
		require.NoError(t, err)
		require.Equal(t, "Documents", folder.Title)
	})

	t.Run("RejectsOverlongTitle", func(t *testing.T) {
		svc, _, _, _ := newTestNamespace(t)

		_, err := svc.CreateFolder(ctx, uuid.New(), nil, strings.Repeat("x", 300))
		require.True(t, namespace.IsCode(err, namespace.ErrInvalidArgument))
	})
}
