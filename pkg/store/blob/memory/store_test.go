package memory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/anvarov/drivebox/pkg/store/blob"
	"github.com/stretchr/testify/require"
)

func TestMemoryBlobStore(t *testing.T) {
	ctx := context.Background()

	t.Run("PutAndExists", func(t *testing.T) {
		store := NewMemoryBlobStore()

		err := store.Put(ctx, "k1", strings.NewReader("hello"), 5)
		require.NoError(t, err)

		exists, err := store.Exists(ctx, "k1")
		require.NoError(t, err)
		require.True(t, exists)

		data, ok := store.Contents("k1")
		require.True(t, ok)
		require.Equal(t, []byte("hello"), data)
	})

	t.Run("PutSizeMismatch", func(t *testing.T) {
		store := NewMemoryBlobStore()

		err := store.Put(ctx, "k1", strings.NewReader("hello"), 99)
		require.Error(t, err)
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		store := NewMemoryBlobStore()

		require.NoError(t, store.Put(ctx, "k1", strings.NewReader("old"), 3))
		require.NoError(t, store.Put(ctx, "k1", strings.NewReader("new!"), 4))

		data, ok := store.Contents("k1")
		require.True(t, ok)
		require.Equal(t, []byte("new!"), data)
		require.Equal(t, 1, store.Len())
	})

	t.Run("DeleteMissingKeyIsNoop", func(t *testing.T) {
		store := NewMemoryBlobStore()

		err := store.Delete(ctx, "never-existed")
		require.NoError(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		store := NewMemoryBlobStore()

		require.NoError(t, store.Put(ctx, "k1", strings.NewReader("x"), 1))
		require.NoError(t, store.Delete(ctx, "k1"))

		exists, err := store.Exists(ctx, "k1")
		require.NoError(t, err)
		require.False(t, exists)
	})

	t.Run("URLForStoredObject", func(t *testing.T) {
		store := NewMemoryBlobStore()

		require.NoError(t, store.Put(ctx, "k1", strings.NewReader("x"), 1))

		u, err := store.URLFor(ctx, "k1", "report.pdf", time.Hour)
		require.NoError(t, err)
		require.Contains(t, u, "k1")
		require.Contains(t, u, "report.pdf")
	})

	t.Run("URLForMissingObject", func(t *testing.T) {
		store := NewMemoryBlobStore()

		_, err := store.URLFor(ctx, "missing", "x.txt", time.Hour)
		require.ErrorIs(t, err, blob.ErrNotFound)
	})

	t.Run("FailureInjection", func(t *testing.T) {
		store := NewMemoryBlobStore()
		store.FailPuts = true

		err := store.Put(ctx, "k1", strings.NewReader("x"), 1)
		require.Error(t, err)

		store.FailPuts = false
		require.NoError(t, store.Put(ctx, "k1", strings.NewReader("x"), 1))

		store.FailDeletes = true
		require.Error(t, store.Delete(ctx, "k1"))
	})
}
