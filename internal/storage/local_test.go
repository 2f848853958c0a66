package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStoreSave(t *testing.T) {
	store := NewLocalFileStore(t.TempDir(), "/media/")

	path, err := store.Save("alice", "photo.png", []byte("bytes"))
	require.NoError(t, err)

	prefix := "users/alice/images/" + time.Now().Format("2006/01/02") + "/"
	assert.True(t, strings.HasPrefix(path, prefix), "unexpected layout: %s", path)
	assert.True(t, strings.HasSuffix(path, ".png"))

	data, err := os.ReadFile(filepath.Join(store.root, filepath.FromSlash(path)))
	require.NoError(t, err)
	assert.Equal(t, []byte("bytes"), data)

	// Same filename twice never collides.
	other, err := store.Save("alice", "photo.png", []byte("more"))
	require.NoError(t, err)
	assert.NotEqual(t, path, other)
}

func TestLocalFileStoreDelete(t *testing.T) {
	store := NewLocalFileStore(t.TempDir(), "/media")

	path, err := store.Save("alice", "photo.png", []byte("bytes"))
	require.NoError(t, err)
	require.NoError(t, store.Delete(path))

	_, err = os.Stat(filepath.Join(store.root, filepath.FromSlash(path)))
	assert.True(t, os.IsNotExist(err))

	// Deleting again, or deleting nothing, is not an error.
	assert.NoError(t, store.Delete(path))
	assert.NoError(t, store.Delete(""))
}

func TestLocalFileStoreURL(t *testing.T) {
	store := NewLocalFileStore(t.TempDir(), "/media/")
	assert.Equal(t, "/media/users/alice/images/x.png", store.URL("users/alice/images/x.png"))
	assert.Equal(t, "", store.URL(""))
}
