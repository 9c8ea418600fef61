package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebuddy/casebuddy-api/pkg/config"
)

func TestLocalStoragePutOpenDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	key := ObjectKey("user-1", "doc-1", "Lease Agreement.pdf")
	assert.Equal(t, "user-1/doc-1/Lease_Agreement.pdf", key)
	require.NoError(t, store.Put(ctx, key, strings.NewReader("lease text")))

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "lease text", string(body))

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.ErrorIs(t, err, ErrObjectNotFound)
	assert.NoError(t, store.Delete(ctx, key))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	err = store.Put(context.Background(), "../escape.txt", strings.NewReader("x"))
	assert.Error(t, err)
	_, err = store.Open(context.Background(), "/etc/passwd")
	assert.Error(t, err)
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save("exports/old.csv", []byte("a")))
	require.NoError(t, store.Save("exports/new.csv", []byte("b")))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "exports", "old.csv"), old, old))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"exports/old.csv"}, deleted)
}

func TestNewDocumentStoreSelectsBackend(t *testing.T) {
	ctx := context.Background()
	store, err := NewDocumentStore(ctx, config.DocumentsConfig{Storage: "local", StorageDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, store)

	_, err = NewDocumentStore(ctx, config.DocumentsConfig{Storage: "s3"})
	assert.Error(t, err)

	_, err = NewDocumentStore(ctx, config.DocumentsConfig{Storage: "ftp"})
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("a/b/brief.PDF"))
	assert.Equal(t, "image/jpeg", ContentType("scan.jpeg"))
	assert.Equal(t, "application/octet-stream", ContentType("archive.zip"))
}
