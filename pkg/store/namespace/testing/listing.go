package testing

import (
	"context"
	"testing"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/stretchr/testify/require"
)

// RunListingTests executes all directory listing tests.
func (suite *StoreTestSuite) RunListingTests(t *testing.T) {
	t.Run("Empty", suite.testListEmpty)
	t.Run("FoldersBeforeFiles", suite.testListFoldersBeforeFiles)
	t.Run("TitleOrderWithinKind", suite.testListTitleOrder)
	t.Run("RootIsPerOwner", suite.testListRootIsPerOwner)
	t.Run("SingleLevelOnly", suite.testListSingleLevelOnly)
	t.Run("FileEntryMetadata", suite.testListFileEntryMetadata)
	t.Run("ErrorFolderNotFound", suite.testListFolderNotFound)
	t.Run("ErrorFolderForeign", suite.testListFolderForeign)
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	entries, err := store.ListChildren(context.Background(), NewUserID(), nil)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func (suite *StoreTestSuite) testListFoldersBeforeFiles(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	// Interleave creation order so the listing order is earned, not
	// inherited.
	createTestFile(t, store, owner, nil, "a.txt")
	createTestFolder(t, store, owner, nil, "zebra")
	createTestFile(t, store, owner, nil, "m.txt")
	createTestFolder(t, store, owner, nil, "alpha")

	entries, err := store.ListChildren(context.Background(), owner, nil)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	require.True(t, entries[0].IsFolder)
	require.Equal(t, "alpha", entries[0].Title)
	require.True(t, entries[1].IsFolder)
	require.Equal(t, "zebra", entries[1].Title)
	require.False(t, entries[2].IsFolder)
	require.Equal(t, "a.txt", entries[2].Title)
	require.False(t, entries[3].IsFolder)
	require.Equal(t, "m.txt", entries[3].Title)
}

func (suite *StoreTestSuite) testListTitleOrder(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	for _, title := range []string{"c", "a", "b"} {
		createTestFolder(t, store, owner, &folder.ID, title)
	}

	entries, err := store.ListChildren(context.Background(), owner, &folder.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "a", entries[0].Title)
	require.Equal(t, "b", entries[1].Title)
	require.Equal(t, "c", entries[2].Title)
}

func (suite *StoreTestSuite) testListRootIsPerOwner(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	alice := NewUserID()
	bob := NewUserID()

	createTestFolder(t, store, alice, nil, "Documents")
	createTestFile(t, store, bob, nil, "report.txt")

	aliceEntries, err := store.ListChildren(context.Background(), alice, nil)
	require.NoError(t, err)
	require.Len(t, aliceEntries, 1)
	require.Equal(t, "Documents", aliceEntries[0].Title)

	bobEntries, err := store.ListChildren(context.Background(), bob, nil)
	require.NoError(t, err)
	require.Len(t, bobEntries, 1)
	require.Equal(t, "report.txt", bobEntries[0].Title)
}

func (suite *StoreTestSuite) testListSingleLevelOnly(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	parent := createTestFolder(t, store, owner, nil, "Documents")
	child := createTestFolder(t, store, owner, &parent.ID, "Taxes")
	createTestFile(t, store, owner, &child.ID, "2024.pdf")

	entries, err := store.ListChildren(context.Background(), owner, &parent.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, child.ID, entries[0].ID)
}

func (suite *StoreTestSuite) testListFileEntryMetadata(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	input := TestFile("report.pdf", nil)
	input.SizeBytes = 2048
	input.Extension = "pdf"
	file, err := store.CreateFile(context.Background(), owner, input)
	require.NoError(t, err)

	entries, err := store.ListChildren(context.Background(), owner, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, file.ID, entries[0].ID)
	require.Equal(t, int64(2048), entries[0].SizeBytes)
	require.Equal(t, "pdf", entries[0].Extension)
	require.False(t, entries[0].IsFolder)
}

func (suite *StoreTestSuite) testListFolderNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	missing := NewUserID()
	_, err := store.ListChildren(context.Background(), NewUserID(), &missing)
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testListFolderForeign(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	folder := createTestFolder(t, store, NewUserID(), nil, "Documents")

	_, err := store.ListChildren(context.Background(), NewUserID(), &folder.ID)
	AssertErrorCode(t, namespace.ErrForbidden, err)
}
