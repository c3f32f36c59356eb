package testing

import (
	"context"
	"testing"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/stretchr/testify/require"
)

// RunFileTests executes all file operation tests.
func (suite *StoreTestSuite) RunFileTests(t *testing.T) {
	t.Run("Create", suite.testCreateFile)
	t.Run("Get", suite.testGetFile)
	t.Run("Rename", suite.testRenameFile)
	t.Run("Move", suite.testMoveFile)
	t.Run("Delete", suite.testDeleteFile)
}

// ============================================================================
// Create Tests
// ============================================================================

func (suite *StoreTestSuite) testCreateFile(t *testing.T) {
	t.Run("AtRoot", suite.testCreateFileAtRoot)
	t.Run("InFolder", suite.testCreateFileInFolder)
	t.Run("PreservesMetadata", suite.testCreateFilePreservesMetadata)
	t.Run("DuplicateTitleSameFolder", suite.testCreateFileDuplicateTitle)
	t.Run("SameTitleDifferentFolders", suite.testCreateFileSameTitleDifferentFolders)
	t.Run("ErrorFolderNotFound", suite.testCreateFileFolderNotFound)
	t.Run("ErrorFolderForeign", suite.testCreateFileFolderForeign)
}

func (suite *StoreTestSuite) testCreateFileAtRoot(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file, err := store.CreateFile(context.Background(), owner, TestFile("report.txt", nil))
	require.NoError(t, err)
	require.Equal(t, "report.txt", file.Title)
	require.Nil(t, file.FolderID)
	require.Equal(t, owner, file.OwnerID)
}

func (suite *StoreTestSuite) testCreateFileInFolder(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	file := createTestFile(t, store, owner, &folder.ID, "report.txt")

	require.NotNil(t, file.FolderID)
	require.Equal(t, folder.ID, *file.FolderID)
}

func (suite *StoreTestSuite) testCreateFilePreservesMetadata(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	input := TestFile("report.txt", nil)
	input.SizeBytes = 123456
	input.Extension = "pdf"
	input.BlobKey = "blobs/fixed-key"

	file, err := store.CreateFile(context.Background(), owner, input)
	require.NoError(t, err)
	require.Equal(t, int64(123456), file.SizeBytes)
	require.Equal(t, "pdf", file.Extension)
	require.Equal(t, "blobs/fixed-key", file.BlobKey)
}

func (suite *StoreTestSuite) testCreateFileDuplicateTitle(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	createTestFile(t, store, owner, nil, "report.txt")

	_, err := store.CreateFile(context.Background(), owner, TestFile("report.txt", nil))
	AssertErrorCode(t, namespace.ErrConflict, err)
}

func (suite *StoreTestSuite) testCreateFileSameTitleDifferentFolders(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")

	createTestFile(t, store, owner, nil, "report.txt")
	createTestFile(t, store, owner, &folder.ID, "report.txt")
}

func (suite *StoreTestSuite) testCreateFileFolderNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	missing := NewUserID()
	_, err := store.CreateFile(context.Background(), NewUserID(), TestFile("report.txt", &missing))
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testCreateFileFolderForeign(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	folder := createTestFolder(t, store, NewUserID(), nil, "Documents")

	_, err := store.CreateFile(context.Background(), NewUserID(), TestFile("report.txt", &folder.ID))
	AssertErrorCode(t, namespace.ErrForbidden, err)
}

// ============================================================================
// Get Tests
// ============================================================================

func (suite *StoreTestSuite) testGetFile(t *testing.T) {
	t.Run("Exists", suite.testGetFileExists)
	t.Run("ErrorNotFound", suite.testGetFileNotFound)
}

func (suite *StoreTestSuite) testGetFileExists(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	created := createTestFile(t, store, owner, nil, "report.txt")

	fetched, err := store.GetFile(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, created.BlobKey, fetched.BlobKey)
}

func (suite *StoreTestSuite) testGetFileNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	_, err := store.GetFile(context.Background(), NewUserID())
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

// ============================================================================
// Rename Tests
// ============================================================================

func (suite *StoreTestSuite) testRenameFile(t *testing.T) {
	t.Run("Basic", suite.testRenameFileBasic)
	t.Run("ErrorDuplicateTitle", suite.testRenameFileDuplicate)
	t.Run("ErrorForeignOwner", suite.testRenameFileForeignOwner)
}

func (suite *StoreTestSuite) testRenameFileBasic(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "draft.txt")

	renamed, err := store.RenameFile(context.Background(), owner, file.ID, "final.txt")
	require.NoError(t, err)
	require.Equal(t, "final.txt", renamed.Title)
	require.Equal(t, file.BlobKey, renamed.BlobKey)
}

func (suite *StoreTestSuite) testRenameFileDuplicate(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "draft.txt")
	createTestFile(t, store, owner, nil, "final.txt")

	_, err := store.RenameFile(context.Background(), owner, file.ID, "final.txt")
	AssertErrorCode(t, namespace.ErrConflict, err)
}

func (suite *StoreTestSuite) testRenameFileForeignOwner(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	file := createTestFile(t, store, NewUserID(), nil, "draft.txt")

	_, err := store.RenameFile(context.Background(), NewUserID(), file.ID, "final.txt")
	AssertErrorCode(t, namespace.ErrForbidden, err)
}

// ============================================================================
// Move Tests
// ============================================================================

func (suite *StoreTestSuite) testMoveFile(t *testing.T) {
	t.Run("ToFolder", suite.testMoveFileToFolder)
	t.Run("ToRoot", suite.testMoveFileToRoot)
	t.Run("ToCurrentFolder", suite.testMoveFileToCurrentFolder)
	t.Run("ErrorDuplicateTitleInDestination", suite.testMoveFileDuplicateInDestination)
	t.Run("ErrorDestinationNotFound", suite.testMoveFileDestinationNotFound)
}

func (suite *StoreTestSuite) testMoveFileToFolder(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	file := createTestFile(t, store, owner, nil, "report.txt")

	moved, err := store.MoveFile(context.Background(), owner, file.ID, &folder.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.FolderID)
	require.Equal(t, folder.ID, *moved.FolderID)
}

func (suite *StoreTestSuite) testMoveFileToRoot(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	file := createTestFile(t, store, owner, &folder.ID, "report.txt")

	moved, err := store.MoveFile(context.Background(), owner, file.ID, nil)
	require.NoError(t, err)
	require.Nil(t, moved.FolderID)
}

func (suite *StoreTestSuite) testMoveFileToCurrentFolder(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	file := createTestFile(t, store, owner, &folder.ID, "report.txt")

	// Moving into the file's current folder is a no-op, not a
	// collision with its own sibling-index entry
	moved, err := store.MoveFile(context.Background(), owner, file.ID, &folder.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.FolderID)
	require.Equal(t, folder.ID, *moved.FolderID)

	entries, err := store.ListChildren(context.Background(), owner, &folder.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, file.ID, entries[0].ID)
}

func (suite *StoreTestSuite) testMoveFileDuplicateInDestination(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	createTestFile(t, store, owner, &folder.ID, "report.txt")
	file := createTestFile(t, store, owner, nil, "report.txt")

	_, err := store.MoveFile(context.Background(), owner, file.ID, &folder.ID)
	AssertErrorCode(t, namespace.ErrConflict, err)
}

func (suite *StoreTestSuite) testMoveFileDestinationNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	missing := NewUserID()

	_, err := store.MoveFile(context.Background(), owner, file.ID, &missing)
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

// ============================================================================
// Delete Tests
// ============================================================================

func (suite *StoreTestSuite) testDeleteFile(t *testing.T) {
	t.Run("Basic", suite.testDeleteFileBasic)
	t.Run("RemovesGrants", suite.testDeleteFileRemovesGrants)
	t.Run("FreesTitle", suite.testDeleteFileFreesTitle)
	t.Run("ErrorNotFound", suite.testDeleteFileNotFound)
	t.Run("ErrorForeignOwner", suite.testDeleteFileForeignOwner)
}

func (suite *StoreTestSuite) testDeleteFileBasic(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")

	removed, err := store.DeleteFile(context.Background(), owner, file.ID)
	require.NoError(t, err)
	require.Equal(t, file.ID, removed.ID)
	require.Equal(t, file.BlobKey, removed.BlobKey)

	_, err = store.GetFile(context.Background(), file.ID)
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testDeleteFileRemovesGrants(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()
	grantee := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	grant := createTestGrant(t, store, file.ID, owner, grantee)

	_, err := store.DeleteFile(context.Background(), owner, file.ID)
	require.NoError(t, err)

	_, err = store.GetGrant(context.Background(), grant.ID)
	AssertErrorCode(t, namespace.ErrNotFound, err)

	received, err := store.GrantsByGrantee(context.Background(), grantee)
	require.NoError(t, err)
	require.Empty(t, received)
}

func (suite *StoreTestSuite) testDeleteFileFreesTitle(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")

	_, err := store.DeleteFile(context.Background(), owner, file.ID)
	require.NoError(t, err)

	createTestFile(t, store, owner, nil, "report.txt")
}

func (suite *StoreTestSuite) testDeleteFileNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	_, err := store.DeleteFile(context.Background(), NewUserID(), NewUserID())
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testDeleteFileForeignOwner(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	file := createTestFile(t, store, NewUserID(), nil, "report.txt")

	_, err := store.DeleteFile(context.Background(), NewUserID(), file.ID)
	AssertErrorCode(t, namespace.ErrForbidden, err)
}
