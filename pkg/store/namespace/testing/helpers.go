package testing

import (
	"context"
	"testing"
	"time"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewUserID generates a fresh user id for a test.
func NewUserID() namespace.UserID {
	return uuid.New()
}

// TestFile builds a file record ready for CreateFile. The store assigns
// ID and OwnerID; everything else comes from here.
func TestFile(title string, folderID *uuid.UUID) *namespace.File {
	return &namespace.File{
		Title:     title,
		FolderID:  folderID,
		BlobKey:   "blobs/" + uuid.NewString(),
		SizeBytes: 1024,
		Extension: "txt",
	}
}

// TestGrant builds a grant record ready for CreateGrant, valid for one
// hour from now.
func TestGrant(fileID uuid.UUID, grantor, grantee namespace.UserID, perms namespace.Permission) *namespace.SharingGrant {
	now := time.Now().UTC()
	return &namespace.SharingGrant{
		FileID:      fileID,
		GrantorID:   grantor,
		GranteeID:   grantee,
		Permissions: perms,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
}

// createTestFolder creates a folder and fails the test on error.
func createTestFolder(t *testing.T, store namespace.Store, owner namespace.UserID, parentID *uuid.UUID, title string) *namespace.Folder {
	t.Helper()
	folder, err := store.CreateFolder(context.Background(), owner, parentID, title)
	require.NoError(t, err)
	require.NotNil(t, folder)
	return folder
}

// createTestFile creates a file and fails the test on error.
func createTestFile(t *testing.T, store namespace.Store, owner namespace.UserID, folderID *uuid.UUID, title string) *namespace.File {
	t.Helper()
	file, err := store.CreateFile(context.Background(), owner, TestFile(title, folderID))
	require.NoError(t, err)
	require.NotNil(t, file)
	return file
}

// createTestGrant creates a grant and fails the test on error.
func createTestGrant(t *testing.T, store namespace.Store, fileID uuid.UUID, grantor, grantee namespace.UserID) *namespace.SharingGrant {
	t.Helper()
	grant, err := store.CreateGrant(context.Background(), TestGrant(fileID, grantor, grantee, namespace.PermissionRead))
	require.NoError(t, err)
	require.NotNil(t, grant)
	return grant
}

// AssertErrorCode asserts that err carries the expected domain error code.
func AssertErrorCode(t *testing.T, expected namespace.ErrorCode, err error, msgAndArgs ...any) bool {
	t.Helper()

	if err == nil {
		return assert.Fail(t, "Expected an error but got nil", msgAndArgs...)
	}

	code, ok := namespace.CodeOf(err)
	if !ok {
		return assert.Fail(t, "Expected a StoreError, got: "+err.Error(), msgAndArgs...)
	}

	return assert.Equal(t, expected, code, msgAndArgs...)
}
