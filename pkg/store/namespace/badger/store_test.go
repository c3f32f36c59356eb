package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anvarov/drivebox/pkg/store/namespace"
	namespacetesting "github.com/anvarov/drivebox/pkg/store/namespace/testing"
	"github.com/stretchr/testify/require"
)

// TestBadgerStore runs the complete namespace.Store test suite against
// the Badger-backed implementation, using the in-memory mode so no
// temp directories leak between subtests.
func TestBadgerStore(t *testing.T) {
	suite := &namespacetesting.StoreTestSuite{
		NewStore: func() namespace.Store {
			store, err := NewBadgerStore(context.Background(), BadgerStoreConfig{
				InMemory: true,
			})
			if err != nil {
				t.Fatalf("Failed to create BadgerStore: %v", err)
			}
			return store
		},
	}

	suite.Run(t)
}

// TestBadgerStorePersistence verifies data survives a close/reopen cycle.
func TestBadgerStorePersistence(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "namespace.db")
	owner := namespacetesting.NewUserID()

	store, err := NewBadgerStore(ctx, BadgerStoreConfig{DBPath: dbPath})
	require.NoError(t, err)

	folder, err := store.CreateFolder(ctx, owner, nil, "Documents")
	require.NoError(t, err)

	_, err = store.CreateFile(ctx, owner, namespacetesting.TestFile("report.txt", &folder.ID))
	require.NoError(t, err)

	require.NoError(t, store.Close())

	reopened, err := NewBadgerStore(ctx, BadgerStoreConfig{DBPath: dbPath})
	require.NoError(t, err)
	defer reopened.Close()

	fetched, err := reopened.GetFolder(ctx, folder.ID)
	require.NoError(t, err)
	require.Equal(t, "Documents", fetched.Title)

	entries, err := reopened.ListChildren(ctx, owner, &folder.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "report.txt", entries[0].Title)
}
