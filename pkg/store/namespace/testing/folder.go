package testing

import (
	"context"
	"testing"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/stretchr/testify/require"
)

// RunFolderTests executes all folder operation tests.
func (suite *StoreTestSuite) RunFolderTests(t *testing.T) {
	t.Run("Create", suite.testCreateFolder)
	t.Run("Get", suite.testGetFolder)
	t.Run("Rename", suite.testRenameFolder)
	t.Run("Move", suite.testMoveFolder)
}

// ============================================================================
// Create Tests
// ============================================================================

func (suite *StoreTestSuite) testCreateFolder(t *testing.T) {
	t.Run("AtRoot", suite.testCreateFolderAtRoot)
	t.Run("Nested", suite.testCreateFolderNested)
	t.Run("DuplicateTitleSameParent", suite.testCreateFolderDuplicateTitle)
	t.Run("SameTitleDifferentParents", suite.testCreateFolderSameTitleDifferentParents)
	t.Run("SameTitleDifferentOwners", suite.testCreateFolderSameTitleDifferentOwners)
	t.Run("SameTitleAsFile", suite.testCreateFolderSameTitleAsFile)
	t.Run("ErrorParentNotFound", suite.testCreateFolderParentNotFound)
	t.Run("ErrorParentForeign", suite.testCreateFolderParentForeign)
}

func (suite *StoreTestSuite) testCreateFolderAtRoot(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder, err := store.CreateFolder(context.Background(), owner, nil, "Documents")
	require.NoError(t, err)
	require.Equal(t, "Documents", folder.Title)
	require.Nil(t, folder.ParentID)
	require.Equal(t, owner, folder.OwnerID)
	require.NotEqual(t, folder.ID, folder.OwnerID)
}

func (suite *StoreTestSuite) testCreateFolderNested(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	parent := createTestFolder(t, store, owner, nil, "Documents")
	child := createTestFolder(t, store, owner, &parent.ID, "Taxes")

	require.NotNil(t, child.ParentID)
	require.Equal(t, parent.ID, *child.ParentID)
}

func (suite *StoreTestSuite) testCreateFolderDuplicateTitle(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	createTestFolder(t, store, owner, nil, "Documents")

	_, err := store.CreateFolder(context.Background(), owner, nil, "Documents")
	AssertErrorCode(t, namespace.ErrConflict, err)
}

func (suite *StoreTestSuite) testCreateFolderSameTitleDifferentParents(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	parent1 := createTestFolder(t, store, owner, nil, "2024")
	parent2 := createTestFolder(t, store, owner, nil, "2025")

	createTestFolder(t, store, owner, &parent1.ID, "Taxes")
	createTestFolder(t, store, owner, &parent2.ID, "Taxes")
}

func (suite *StoreTestSuite) testCreateFolderSameTitleDifferentOwners(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	createTestFolder(t, store, NewUserID(), nil, "Documents")
	createTestFolder(t, store, NewUserID(), nil, "Documents")
}

func (suite *StoreTestSuite) testCreateFolderSameTitleAsFile(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	// Folder and file titles live in separate namespaces.
	createTestFile(t, store, owner, nil, "report")
	createTestFolder(t, store, owner, nil, "report")
}

func (suite *StoreTestSuite) testCreateFolderParentNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	missing := NewUserID()
	_, err := store.CreateFolder(context.Background(), NewUserID(), &missing, "Documents")
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testCreateFolderParentForeign(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	parent := createTestFolder(t, store, NewUserID(), nil, "Documents")

	_, err := store.CreateFolder(context.Background(), NewUserID(), &parent.ID, "Taxes")
	AssertErrorCode(t, namespace.ErrForbidden, err)
}

// ============================================================================
// Get Tests
// ============================================================================

func (suite *StoreTestSuite) testGetFolder(t *testing.T) {
	t.Run("Exists", suite.testGetFolderExists)
	t.Run("ErrorNotFound", suite.testGetFolderNotFound)
}

func (suite *StoreTestSuite) testGetFolderExists(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	created := createTestFolder(t, store, owner, nil, "Documents")

	fetched, err := store.GetFolder(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, created.Title, fetched.Title)
	require.Equal(t, owner, fetched.OwnerID)
}

func (suite *StoreTestSuite) testGetFolderNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	_, err := store.GetFolder(context.Background(), NewUserID())
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

// ============================================================================
// Rename Tests
// ============================================================================

func (suite *StoreTestSuite) testRenameFolder(t *testing.T) {
	t.Run("Basic", suite.testRenameFolderBasic)
	t.Run("NoOpSameTitle", suite.testRenameFolderNoOp)
	t.Run("FreesOldTitle", suite.testRenameFolderFreesOldTitle)
	t.Run("ErrorDuplicateTitle", suite.testRenameFolderDuplicate)
	t.Run("ErrorNotFound", suite.testRenameFolderNotFound)
	t.Run("ErrorForeignOwner", suite.testRenameFolderForeignOwner)
}

func (suite *StoreTestSuite) testRenameFolderBasic(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")

	renamed, err := store.RenameFolder(context.Background(), owner, folder.ID, "Archive")
	require.NoError(t, err)
	require.Equal(t, folder.ID, renamed.ID)
	require.Equal(t, "Archive", renamed.Title)

	fetched, err := store.GetFolder(context.Background(), folder.ID)
	require.NoError(t, err)
	require.Equal(t, "Archive", fetched.Title)
}

func (suite *StoreTestSuite) testRenameFolderNoOp(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")

	renamed, err := store.RenameFolder(context.Background(), owner, folder.ID, "Documents")
	require.NoError(t, err)
	require.Equal(t, "Documents", renamed.Title)
}

func (suite *StoreTestSuite) testRenameFolderFreesOldTitle(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")

	_, err := store.RenameFolder(context.Background(), owner, folder.ID, "Archive")
	require.NoError(t, err)

	// The old title is available again.
	createTestFolder(t, store, owner, nil, "Documents")
}

func (suite *StoreTestSuite) testRenameFolderDuplicate(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Documents")
	createTestFolder(t, store, owner, nil, "Archive")

	_, err := store.RenameFolder(context.Background(), owner, folder.ID, "Archive")
	AssertErrorCode(t, namespace.ErrConflict, err)
}

func (suite *StoreTestSuite) testRenameFolderNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	_, err := store.RenameFolder(context.Background(), NewUserID(), NewUserID(), "Archive")
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testRenameFolderForeignOwner(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	folder := createTestFolder(t, store, NewUserID(), nil, "Documents")

	_, err := store.RenameFolder(context.Background(), NewUserID(), folder.ID, "Archive")
	AssertErrorCode(t, namespace.ErrForbidden, err)
}

// ============================================================================
// Move Tests
// ============================================================================

func (suite *StoreTestSuite) testMoveFolder(t *testing.T) {
	t.Run("ToAnotherFolder", suite.testMoveFolderToAnotherFolder)
	t.Run("ToRoot", suite.testMoveFolderToRoot)
	t.Run("ToCurrentParent", suite.testMoveFolderToCurrentParent)
	t.Run("ToCurrentRoot", suite.testMoveFolderToCurrentRoot)
	t.Run("ErrorIntoItself", suite.testMoveFolderIntoItself)
	t.Run("ErrorIntoDescendant", suite.testMoveFolderIntoDescendant)
	t.Run("ErrorDuplicateTitleInDestination", suite.testMoveFolderDuplicateInDestination)
	t.Run("ErrorDestinationForeign", suite.testMoveFolderDestinationForeign)
}

func (suite *StoreTestSuite) testMoveFolderToAnotherFolder(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	src := createTestFolder(t, store, owner, nil, "Inbox")
	dst := createTestFolder(t, store, owner, nil, "Archive")
	folder := createTestFolder(t, store, owner, &src.ID, "Receipts")

	moved, err := store.MoveFolder(context.Background(), owner, folder.ID, &dst.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	require.Equal(t, dst.ID, *moved.ParentID)

	entries, err := store.ListChildren(context.Background(), owner, &dst.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, folder.ID, entries[0].ID)
}

func (suite *StoreTestSuite) testMoveFolderToRoot(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	parent := createTestFolder(t, store, owner, nil, "Inbox")
	folder := createTestFolder(t, store, owner, &parent.ID, "Receipts")

	moved, err := store.MoveFolder(context.Background(), owner, folder.ID, nil)
	require.NoError(t, err)
	require.Nil(t, moved.ParentID)
}

func (suite *StoreTestSuite) testMoveFolderToCurrentParent(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	parent := createTestFolder(t, store, owner, nil, "Inbox")
	folder := createTestFolder(t, store, owner, &parent.ID, "Receipts")

	// Moving into the folder's current parent is a no-op, not a
	// collision with its own sibling-index entry
	moved, err := store.MoveFolder(context.Background(), owner, folder.ID, &parent.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentID)
	require.Equal(t, parent.ID, *moved.ParentID)

	entries, err := store.ListChildren(context.Background(), owner, &parent.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, folder.ID, entries[0].ID)
}

func (suite *StoreTestSuite) testMoveFolderToCurrentRoot(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Inbox")

	moved, err := store.MoveFolder(context.Background(), owner, folder.ID, nil)
	require.NoError(t, err)
	require.Nil(t, moved.ParentID)

	entries, err := store.ListChildren(context.Background(), owner, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func (suite *StoreTestSuite) testMoveFolderIntoItself(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Inbox")

	_, err := store.MoveFolder(context.Background(), owner, folder.ID, &folder.ID)
	AssertErrorCode(t, namespace.ErrInvalidOperation, err)
}

func (suite *StoreTestSuite) testMoveFolderIntoDescendant(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	top := createTestFolder(t, store, owner, nil, "a")
	mid := createTestFolder(t, store, owner, &top.ID, "b")
	leaf := createTestFolder(t, store, owner, &mid.ID, "c")

	_, err := store.MoveFolder(context.Background(), owner, top.ID, &leaf.ID)
	AssertErrorCode(t, namespace.ErrInvalidOperation, err)
}

func (suite *StoreTestSuite) testMoveFolderDuplicateInDestination(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	dst := createTestFolder(t, store, owner, nil, "Archive")
	createTestFolder(t, store, owner, &dst.ID, "Receipts")
	folder := createTestFolder(t, store, owner, nil, "Receipts")

	_, err := store.MoveFolder(context.Background(), owner, folder.ID, &dst.ID)
	AssertErrorCode(t, namespace.ErrConflict, err)
}

func (suite *StoreTestSuite) testMoveFolderDestinationForeign(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	folder := createTestFolder(t, store, owner, nil, "Receipts")
	foreign := createTestFolder(t, store, NewUserID(), nil, "Archive")

	_, err := store.MoveFolder(context.Background(), owner, folder.ID, &foreign.ID)
	AssertErrorCode(t, namespace.ErrForbidden, err)
}
