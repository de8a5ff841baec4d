package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filing-backend/internal/shared/storage/object"
)

func TestPutGetDelete(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()
	body := []byte("%PDF-1.4 test body")

	key, err := object.DocumentKey("guest:abc", "doc-1", "pay stub.pdf")
	require.NoError(t, err)

	obj, err := store.Put(ctx, key, body, "")
	require.NoError(t, err)
	assert.Equal(t, key, obj.Key)
	assert.Equal(t, int64(len(body)), obj.Size)
	assert.Equal(t, "application/pdf", obj.ContentType)

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, body, got)

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, filepath.Dir(filepath.FromSlash(key))))
	assert.True(t, os.IsNotExist(err), "empty document directory is removed")

	require.NoError(t, store.Delete(ctx, key), "second delete is a no-op")
	_, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, object.ErrNotFound)
}

func TestPutKeepsDeclaredContentType(t *testing.T) {
	store := New(t.TempDir())
	obj, err := store.Put(context.Background(), "u/d/scan.png", []byte("not really a png"), "image/png; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()
	_, err := store.Get(ctx, "../etc/passwd")
	assert.Error(t, err)
	_, err = store.Put(ctx, "/abs/key", []byte("x"), "")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, "."))
}
