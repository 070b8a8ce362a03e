package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docquery/internal/indexer"
	"docquery/internal/storage"
)

type recordingIngest struct {
	mu    sync.Mutex
	paths []string
	calls chan string
	err   error
}

func newRecordingIngest() *recordingIngest {
	return &recordingIngest{calls: make(chan string, 16)}
}

func (r *recordingIngest) fn(_ context.Context, path string) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	r.calls <- path
	return r.err
}

func (r *recordingIngest) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func TestWatcher_ProcessExisting(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "a")
	writeFile(t, filepath.Join(dir, "b.pdf"), "b")

	rec := newRecordingIngest()
	calls := 0
	w := NewWatcher(dir, func(ctx context.Context, path string) error {
		calls++
		if filepath.Base(path) == "b.pdf" {
			return errors.New("broken")
		}
		return rec.fn(ctx, path)
	}, time.Millisecond)

	ingested, failed, err := w.ProcessExisting(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, ingested)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, calls)
}

func TestWatcher_RunDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	rec := newRecordingIngest()
	w := NewWatcher(dir, rec.fn, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.ready:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not start")
	}

	path := filepath.Join(dir, "drop.pdf")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = f.WriteString("%PDF chunk\n")
		require.NoError(t, err)
	}
	require.NoError(t, f.Close())
	writeFile(t, filepath.Join(dir, "ignored.txt"), "text")

	select {
	case got := <-rec.calls:
		assert.Equal(t, path, got)
	case <-time.After(5 * time.Second):
		t.Fatal("file was not ingested")
	}

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, rec.count(), "burst of writes should ingest once")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RunWatchesNewDirectories(t *testing.T) {
	dir := t.TempDir()
	rec := newRecordingIngest()
	w := NewWatcher(dir, rec.fn, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	<-w.ready

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)
	writeFile(t, filepath.Join(sub, "nested.pdf"), "%PDF")

	select {
	case got := <-rec.calls:
		assert.Equal(t, filepath.Join(sub, "nested.pdf"), got)
	case <-time.After(5 * time.Second):
		t.Fatal("file in new directory was not ingested")
	}
}

func TestWatcher_RunMissingDir(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), newRecordingIngest().fn, 0)
	assert.Error(t, w.Run(context.Background()))
	assert.Equal(t, DefaultDebounce, w.debounce)
}

type fakeIngester struct {
	req indexer.IngestRequest
	err error
}

func (f *fakeIngester) Ingest(_ context.Context, req indexer.IngestRequest) (*indexer.IngestResult, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &indexer.IngestResult{Chunks: 3}, nil
}

func TestNewIngestFunc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	writeFile(t, path, "%PDF-1.4")
	wantID, err := DocumentID(path)
	require.NoError(t, err)

	t.Run("ingests under content id", func(t *testing.T) {
		p := &fakeIngester{}
		require.NoError(t, NewIngestFunc(p, true)(context.Background(), path))
		assert.Equal(t, wantID, p.req.DocumentID)
		assert.Equal(t, path, p.req.Path)
		assert.Equal(t, "paper.pdf", p.req.Filename)
		assert.True(t, p.req.OCR)
	})

	t.Run("duplicate is skipped", func(t *testing.T) {
		p := &fakeIngester{err: storage.ErrDuplicate}
		assert.NoError(t, NewIngestFunc(p, false)(context.Background(), path))
	})

	t.Run("other errors propagate", func(t *testing.T) {
		p := &fakeIngester{err: errors.New("boom")}
		assert.Error(t, NewIngestFunc(p, false)(context.Background(), path))
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, NewIngestFunc(&fakeIngester{}, false)(context.Background(), filepath.Join(dir, "gone.pdf")))
	})
}
