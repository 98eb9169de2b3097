package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := NewLocalStore(root, "http://localhost:5000/uploads/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "products/u1/1_shirt.png", strings.NewReader("png-bytes"), 9, "image/png")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000/uploads/products/u1/1_shirt.png", url)

	content, err := os.ReadFile(filepath.Join(store.RootAbs(), "products", "u1", "1_shirt.png"))
	require.NoError(t, err)
	require.Equal(t, "png-bytes", string(content))

	entries, err := os.ReadDir(filepath.Join(store.RootAbs(), "products", "u1"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")

	require.NoError(t, store.Delete(context.Background(), "products/u1/1_shirt.png"))
	require.NoError(t, store.Delete(context.Background(), "products/u1/1_shirt.png"))
	_, err = os.Stat(filepath.Join(store.RootAbs(), "products", "u1", "1_shirt.png"))
	require.True(t, os.IsNotExist(err))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.png", strings.NewReader("x"), 1, "image/png")
	require.Error(t, err)
}

func TestLocalStoreHonoursCancellation(t *testing.T) {
	t.Parallel()

	store, err := NewLocalStore(t.TempDir(), "http://localhost/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Put(ctx, "products/u1/cancelled.png", strings.NewReader("x"), 1, "image/png")
	require.ErrorIs(t, err, context.Canceled)
}
