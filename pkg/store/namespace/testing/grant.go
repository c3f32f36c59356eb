package testing

import (
	"context"
	"testing"
	"time"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	"github.com/stretchr/testify/require"
)

// RunGrantTests executes all sharing grant tests.
func (suite *StoreTestSuite) RunGrantTests(t *testing.T) {
	t.Run("Create", suite.testCreateGrant)
	t.Run("Update", suite.testUpdateGrant)
	t.Run("Delete", suite.testDeleteGrant)
	t.Run("Find", suite.testFindGrant)
	t.Run("Listing", suite.testGrantListing)
	t.Run("Expiry", suite.testGrantExpiry)
}

// ============================================================================
// Create Tests
// ============================================================================

func (suite *StoreTestSuite) testCreateGrant(t *testing.T) {
	t.Run("Basic", suite.testCreateGrantBasic)
	t.Run("DuplicatePair", suite.testCreateGrantDuplicatePair)
	t.Run("SameFileDifferentGrantees", suite.testCreateGrantDifferentGrantees)
	t.Run("ErrorFileNotFound", suite.testCreateGrantFileNotFound)
	t.Run("ErrorGrantorNotOwner", suite.testCreateGrantGrantorNotOwner)
}

func (suite *StoreTestSuite) testCreateGrantBasic(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()
	grantee := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")

	perms := namespace.PermissionRead | namespace.PermissionRename
	grant, err := store.CreateGrant(context.Background(), TestGrant(file.ID, owner, grantee, perms))
	require.NoError(t, err)
	require.Equal(t, file.ID, grant.FileID)
	require.Equal(t, owner, grant.GrantorID)
	require.Equal(t, grantee, grant.GranteeID)
	require.Equal(t, perms, grant.Permissions)
	require.True(t, grant.Permissions.Has(namespace.PermissionRead))
	require.True(t, grant.Permissions.Has(namespace.PermissionRename))
	require.False(t, grant.Permissions.Has(namespace.PermissionDelete))
}

func (suite *StoreTestSuite) testCreateGrantDuplicatePair(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()
	grantee := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	createTestGrant(t, store, file.ID, owner, grantee)

	_, err := store.CreateGrant(context.Background(), TestGrant(file.ID, owner, grantee, namespace.PermissionRead))
	AssertErrorCode(t, namespace.ErrConflict, err)
}

func (suite *StoreTestSuite) testCreateGrantDifferentGrantees(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	createTestGrant(t, store, file.ID, owner, NewUserID())
	createTestGrant(t, store, file.ID, owner, NewUserID())
}

func (suite *StoreTestSuite) testCreateGrantFileNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	_, err := store.CreateGrant(context.Background(), TestGrant(NewUserID(), NewUserID(), NewUserID(), namespace.PermissionRead))
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testCreateGrantGrantorNotOwner(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	file := createTestFile(t, store, NewUserID(), nil, "report.txt")

	// The grantor must own the file being shared.
	_, err := store.CreateGrant(context.Background(), TestGrant(file.ID, NewUserID(), NewUserID(), namespace.PermissionRead))
	AssertErrorCode(t, namespace.ErrForbidden, err)
}

// ============================================================================
// Update Tests
// ============================================================================

func (suite *StoreTestSuite) testUpdateGrant(t *testing.T) {
	t.Run("Basic", suite.testUpdateGrantBasic)
	t.Run("ErrorNotFound", suite.testUpdateGrantNotFound)
	t.Run("ErrorForeignGrantor", suite.testUpdateGrantForeignGrantor)
}

func (suite *StoreTestSuite) testUpdateGrantBasic(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	grant := createTestGrant(t, store, file.ID, owner, NewUserID())

	newExpiry := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	perms := namespace.PermissionRead | namespace.PermissionDelete

	updated, err := store.UpdateGrant(context.Background(), owner, grant.ID, perms, newExpiry)
	require.NoError(t, err)
	require.Equal(t, perms, updated.Permissions)
	require.True(t, updated.ExpiresAt.Equal(newExpiry))

	fetched, err := store.GetGrant(context.Background(), grant.ID)
	require.NoError(t, err)
	require.Equal(t, perms, fetched.Permissions)
}

func (suite *StoreTestSuite) testUpdateGrantNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	_, err := store.UpdateGrant(context.Background(), NewUserID(), NewUserID(), namespace.PermissionRead, time.Now().Add(time.Hour))
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testUpdateGrantForeignGrantor(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	grant := createTestGrant(t, store, file.ID, owner, NewUserID())

	_, err := store.UpdateGrant(context.Background(), NewUserID(), grant.ID, namespace.PermissionRead, time.Now().Add(time.Hour))
	AssertErrorCode(t, namespace.ErrForbidden, err)
}

// ============================================================================
// Delete Tests
// ============================================================================

func (suite *StoreTestSuite) testDeleteGrant(t *testing.T) {
	t.Run("Basic", suite.testDeleteGrantBasic)
	t.Run("AllowsResharing", suite.testDeleteGrantAllowsResharing)
	t.Run("ErrorNotFound", suite.testDeleteGrantNotFound)
	t.Run("ErrorForeignGrantor", suite.testDeleteGrantForeignGrantor)
}

func (suite *StoreTestSuite) testDeleteGrantBasic(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	grant := createTestGrant(t, store, file.ID, owner, NewUserID())

	err := store.DeleteGrant(context.Background(), owner, grant.ID)
	require.NoError(t, err)

	_, err = store.GetGrant(context.Background(), grant.ID)
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testDeleteGrantAllowsResharing(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()
	grantee := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	grant := createTestGrant(t, store, file.ID, owner, grantee)

	err := store.DeleteGrant(context.Background(), owner, grant.ID)
	require.NoError(t, err)

	// The (file, grantee) slot is free again.
	createTestGrant(t, store, file.ID, owner, grantee)
}

func (suite *StoreTestSuite) testDeleteGrantNotFound(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	err := store.DeleteGrant(context.Background(), NewUserID(), NewUserID())
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

func (suite *StoreTestSuite) testDeleteGrantForeignGrantor(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	grant := createTestGrant(t, store, file.ID, owner, NewUserID())

	err := store.DeleteGrant(context.Background(), NewUserID(), grant.ID)
	AssertErrorCode(t, namespace.ErrForbidden, err)
}

// ============================================================================
// Find Tests
// ============================================================================

func (suite *StoreTestSuite) testFindGrant(t *testing.T) {
	t.Run("Exists", suite.testFindGrantExists)
	t.Run("ReturnsExpired", suite.testFindGrantReturnsExpired)
	t.Run("ErrorNoGrant", suite.testFindGrantNoGrant)
}

func (suite *StoreTestSuite) testFindGrantExists(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()
	grantee := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	grant := createTestGrant(t, store, file.ID, owner, grantee)

	found, err := store.FindGrant(context.Background(), file.ID, grantee)
	require.NoError(t, err)
	require.Equal(t, grant.ID, found.ID)
}

func (suite *StoreTestSuite) testFindGrantReturnsExpired(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()
	grantee := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")

	expired := TestGrant(file.ID, owner, grantee, namespace.PermissionRead)
	expired.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	_, err := store.CreateGrant(context.Background(), expired)
	require.NoError(t, err)

	// FindGrant does not filter by expiry; that is the caller's job.
	found, err := store.FindGrant(context.Background(), file.ID, grantee)
	require.NoError(t, err)
	require.False(t, found.Active(time.Now().UTC()))
}

func (suite *StoreTestSuite) testFindGrantNoGrant(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")

	_, err := store.FindGrant(context.Background(), file.ID, NewUserID())
	AssertErrorCode(t, namespace.ErrNotFound, err)
}

// ============================================================================
// Listing Tests
// ============================================================================

func (suite *StoreTestSuite) testGrantListing(t *testing.T) {
	t.Run("ByOwner", suite.testGrantsByOwner)
	t.Run("ByGrantee", suite.testGrantsByGrantee)
	t.Run("EmptyResults", suite.testGrantListingEmpty)
}

func (suite *StoreTestSuite) testGrantsByOwner(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()
	other := NewUserID()

	file1 := createTestFile(t, store, owner, nil, "one.txt")
	file2 := createTestFile(t, store, owner, nil, "two.txt")
	otherFile := createTestFile(t, store, other, nil, "three.txt")

	createTestGrant(t, store, file1.ID, owner, NewUserID())
	createTestGrant(t, store, file2.ID, owner, NewUserID())
	createTestGrant(t, store, otherFile.ID, other, NewUserID())

	issued, err := store.GrantsByOwner(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, issued, 2)
	for _, grant := range issued {
		require.Equal(t, owner, grant.GrantorID)
	}
}

func (suite *StoreTestSuite) testGrantsByGrantee(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	grantee := NewUserID()
	owner1 := NewUserID()
	owner2 := NewUserID()

	file1 := createTestFile(t, store, owner1, nil, "one.txt")
	file2 := createTestFile(t, store, owner2, nil, "two.txt")

	createTestGrant(t, store, file1.ID, owner1, grantee)
	createTestGrant(t, store, file2.ID, owner2, grantee)
	createTestGrant(t, store, file1.ID, owner1, NewUserID())

	received, err := store.GrantsByGrantee(context.Background(), grantee)
	require.NoError(t, err)
	require.Len(t, received, 2)
	for _, grant := range received {
		require.Equal(t, grantee, grant.GranteeID)
	}
}

func (suite *StoreTestSuite) testGrantListingEmpty(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	issued, err := store.GrantsByOwner(context.Background(), NewUserID())
	require.NoError(t, err)
	require.Empty(t, issued)

	received, err := store.GrantsByGrantee(context.Background(), NewUserID())
	require.NoError(t, err)
	require.Empty(t, received)
}

// ============================================================================
// Expiry Tests
// ============================================================================

func (suite *StoreTestSuite) testGrantExpiry(t *testing.T) {
	t.Run("SweepRemovesExpired", suite.testSweepRemovesExpired)
	t.Run("SweepKeepsActive", suite.testSweepKeepsActive)
	t.Run("SweepEmptyStore", suite.testSweepEmptyStore)
}

func (suite *StoreTestSuite) testSweepRemovesExpired(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()
	grantee := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")

	grant := TestGrant(file.ID, owner, grantee, namespace.PermissionRead)
	grant.ExpiresAt = time.Now().UTC().Add(-time.Minute)
	created, err := store.CreateGrant(context.Background(), grant)
	require.NoError(t, err)

	removed, err := store.DeleteExpiredGrants(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = store.GetGrant(context.Background(), created.ID)
	AssertErrorCode(t, namespace.ErrNotFound, err)

	// Resharing after the sweep must succeed.
	createTestGrant(t, store, file.ID, owner, grantee)
}

func (suite *StoreTestSuite) testSweepKeepsActive(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()
	owner := NewUserID()

	file := createTestFile(t, store, owner, nil, "report.txt")
	grant := createTestGrant(t, store, file.ID, owner, NewUserID())

	removed, err := store.DeleteExpiredGrants(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Zero(t, removed)

	_, err = store.GetGrant(context.Background(), grant.ID)
	require.NoError(t, err)
}

func (suite *StoreTestSuite) testSweepEmptyStore(t *testing.T) {
	store := suite.NewStore()
	defer store.Close()

	removed, err := store.DeleteExpiredGrants(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Zero(t, removed)
}
