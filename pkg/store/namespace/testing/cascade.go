package testing

import (
	"context"
	"testing"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// RunCascadeTests executes all folder tree deletion tests.
func (suite *StoreTestSuite) RunCascadeTests(t *testing.T) {
	t.Run("EmptyFolder", suite.testCascadeEmptyFolder)
	t.Run("DeepTree", suite.testCascadeDeepTree)
	t.Run("ReturnsDeletedFiles", suite.testCascadeReturnsDeletedFiles)
	t.Run("RemovesGrantsInSubtree", suite.testCascadeRemovesGrants)
	t.Run("LeavesSiblingsAlone", suite.testCascadeLeavesSiblings)
	t.Run("FreesTitles", suite.testCascadeFreesTitles)
	t.Run("ErrorNotFound", suite.testCascadeNotFound)
	t.Run("ErrorForeignOwner", suite.testCascadeForeignOwner)
}

func (suite *StoreTestSuite) testCascadeEmptyFolder(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")

	result, err := store.DeleteFolderTree(context.Background(), owner, folder.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.Folders)
	require.Empty(t, result.Files)
	require.Zero(t, result.Grants)

	_, err = store.GetFolder(context.Background(), folder.ID)
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testCascadeDeepTree(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	// root -> a -> b -> c, files at every level.
	a := createTestFolder(t, store, owner, nil, "a")
	b := createTestFolder(t, store, owner, &a.ID, "b")
	c := createTestFolder(t, store, owner, &b.ID, "c")
	createTestFile(t, store, owner, &a.ID, "f1.txt")
	createTestFile(t, store, owner, &b.ID, "f2.txt")
	createTestFile(t, store, owner, &c.ID, "f3.txt")

	result, err := store.DeleteFolderTree(context.Background(), owner, a.ID)
	require.NoError(t, err)
	require.Equal(t, 3, result.Folders)
	require.Len(t, result.Files, 3)

	for _, id := range []uuid.UUID{a.ID, b.ID, c.ID} {
		_, err := store.GetFolder(context.Background(), id)
		AssertErrorCode(t, namespace.ErrNotFound, err)
	}
}

func (suite *StoreTestSuite) testCascadeReturnsDeletedFiles(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	file := createTestFile(t, store, owner, &folder.ID, "report.txt")

	result, err := store.DeleteFolderTree(context.Background(), owner, folder.ID)
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	require.Equal(t, file.ID, result.Files[0].ID)
	// BlobKey must survive so the caller can release the content.
	require.Equal(t, file.BlobKey, result.Files[0].BlobKey)
}

func (suite *StoreTestSuite) testCascadeRemovesGrants(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()
	grantee := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	sub := createTestFolder(t, store, owner, &folder.ID, "Shared")
	file := createTestFile(t, store, owner, &sub.ID, "report.txt")
	grant := createTestGrant(t, store, file.ID, owner, grantee)

	result, err := store.DeleteFolderTree(context.Background(), owner, folder.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.Grants)

	_, err = store.GetGrant(context.Background(), grant.ID)
	AssertErrorCode(t, namespace.ErrNotFound, err)

	received, err := store.GrantsByGrantee(context.Background(), grantee)
	require.NoError(t, err)
	require.Empty(t, received)
}

func (suite *StoreTestSuite) testCascadeLeavesSiblings(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	doomed := createTestFolder(t, store, owner, nil, "Doomed")
	createTestFolder(t, store, owner, &doomed.ID, "Inner")
	keeper := createTestFolder(t, store, owner, nil, "Keeper")
	keptFile := createTestFile(t, store, owner, &keeper.ID, "precious.txt")

	_, err := store.DeleteFolderTree(context.Background(), owner, doomed.ID)
	require.NoError(t, err)

	_, err = store.GetFolder(context.Background(), keeper.ID)
	require.NoError(t, err)
	_, err = store.GetFile(context.Background(), keptFile.ID)
	require.NoError(t, err)
}

func (suite *StoreTestSuite) testCascadeFreesTitles(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	createTestFile(t, store, owner, &folder.ID, "report.txt")

	_, err := store.DeleteFolderTree(context.Background(), owner, folder.ID)
	require.NoError(t, err)

	createTestFolder(t, store, owner, nil, "Documents")
}

func (suite *StoreTestSuite) testCascadeNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	_, err := store.DeleteFolderTree(context.Background(), NewUserID(), NewUserID())
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testCascadeForeignOwner(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	folder := createTestFolder(t, store, NewUserID(), nil, "Documents")

	_, err := store.DeleteFolderTree(context.Background(), NewUserID(), folder.ID)
	AssertErrorCode(t, namespace.ErrForbidden, err)
}
