package inbox

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "%PDF-a")
	writeFile(t, filepath.Join(dir, "nested", "b.PDF"), "%PDF-b")
	writeFile(t, filepath.Join(dir, "notes.txt"), "text")
	writeFile(t, filepath.Join(dir, ".hidden.pdf"), "%PDF-h")
	writeFile(t, filepath.Join(dir, ".cache", "c.pdf"), "%PDF-c")

	files, err := Scan(context.Background(), dir)
	require.NoError(t, err)

	var rel []string
	for _, f := range files {
		rel = append(rel, f.RelPath)
		assert.True(t, filepath.IsAbs(f.AbsPath))
	}
	sort.Strings(rel)
	assert.Equal(t, []string{"a.pdf", "nested/b.PDF"}, rel)
}

func TestScan_MissingDir(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestScan_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "%PDF-a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDocumentID(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pdf")
	b := filepath.Join(dir, "copy", "b.pdf")
	c := filepath.Join(dir, "c.pdf")
	writeFile(t, a, "same content")
	writeFile(t, b, "same content")
	writeFile(t, c, "other content")

	idA, err := DocumentID(a)
	require.NoError(t, err)
	idB, err := DocumentID(b)
	require.NoError(t, err)
	idC, err := DocumentID(c)
	require.NoError(t, err)

	assert.Len(t, idA, 16)
	assert.Equal(t, idA, idB, "identical content must share an id")
	assert.NotEqual(t, idA, idC)

	_, err = DocumentID(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)
}

func TestHasHiddenComponent(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"a.pdf", false},
		{"nested/a.pdf", false},
		{".a.pdf", true},
		{".cache/a.pdf", true},
		{"x/.y/a.pdf", true},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, hasHiddenComponent(tt.rel))
		})
	}
}
