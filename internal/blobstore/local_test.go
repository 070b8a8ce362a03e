package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		filename string
		want     string
	}{
		{"plain", "abc123", "report.pdf", "abc123/report.pdf"},
		{"spaces", "abc123", "annual report.pdf", "abc123/annual_report.pdf"},
		{"directory stripped", "abc123", "../../etc/passwd.pdf", "abc123/passwd.pdf"},
		{"empty name", "abc123", "", "abc123/document"},
		{"slash in id", "a/b", "x.pdf", "a_b/x.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.id, tt.filename))
		})
	}
}

func TestLocalStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	key, err := store.Save(ctx, "doc1", "paper.pdf", strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)
	assert.Equal(t, "doc1/paper.pdf", key)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "%PDF-1.4 body", string(data))

	path, cleanup, err := store.LocalPath(ctx, key)
	require.NoError(t, err)
	cleanup()
	_, err = os.Stat(path)
	assert.NoError(t, err, "cleanup must not remove the stored file")

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Open(ctx, key)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = os.Stat(filepath.Dir(path))
	assert.True(t, os.IsNotExist(err), "empty document directory should be removed")
}

func TestLocalStore_DeleteMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, store.Delete(context.Background(), "nope/missing.pdf"))
}

func TestLocalStore_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(ctx, "../outside.pdf")
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, "../outside.pdf"))
	_, cleanup, err := store.LocalPath(ctx, "../../x")
	cleanup()
	assert.Error(t, err)
}

func TestLocalStore_LocalPathMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, cleanup, err := store.LocalPath(context.Background(), "doc/missing.pdf")
	cleanup()
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMaterialize(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	key, err := store.Save(ctx, "doc2", "notes.pdf", strings.NewReader("content"))
	require.NoError(t, err)

	path, cleanup, err := materialize(ctx, store, key)
	require.NoError(t, err)
	assert.Equal(t, ".pdf", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	store, err := New(ctx, Config{Type: TypeLocal, LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(ctx, Config{Type: TypeS3})
	assert.Error(t, err)

	_, err = New(ctx, Config{Type: "ftp"})
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", contentType("a.pdf"))
	assert.Equal(t, "text/plain", contentType("a.txt"))
	assert.Equal(t, "application/octet-stream", contentType("a.bin"))
}
