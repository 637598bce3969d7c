package storage

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("certificates/intent-1.pdf", []byte("pdf-bytes"))
	require.NoError(t, err)
	require.Equal(t, "certificates/intent-1.pdf", rel)

	file, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "pdf-bytes", string(content))
}

func TestLocalStorageDeleteIsIdempotent(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("certificates/intent-1.pdf", []byte("pdf-bytes"))
	require.NoError(t, err)

	require.NoError(t, store.Delete("certificates/intent-1.pdf"))
	require.NoError(t, store.Delete("certificates/intent-1.pdf"))

	_, err = store.Open("certificates/intent-1.pdf")
	require.Error(t, err)
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.pdf", []byte("nope"))
	require.ErrorContains(t, err, "invalid storage path")

	_, err = store.Open("/etc/passwd")
	require.ErrorContains(t, err, "invalid storage path")
}
