package inbox

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"docquery/internal/contextutil"
	"docquery/internal/indexer"
	"docquery/internal/storage"
)

// DefaultDebounce is how long a file must stay quiet before it is ingested.
const DefaultDebounce = 2 * time.Second

// IngestFunc ingests the file at path.
type IngestFunc func(ctx context.Context, path string) error

// Ingester is the part of the indexing pipeline the inbox needs.
type Ingester interface {
	Ingest(ctx context.Context, req indexer.IngestRequest) (*indexer.IngestResult, error)
}

// NewIngestFunc ingests files under their content-hash id. A file that was already
// ingested is skipped without error.
func NewIngestFunc(p Ingester, ocr bool) IngestFunc {
	return func(ctx context.Context, path string) error {
		logger := contextutil.LoggerFromContext(ctx)

		id, err := DocumentID(path)
		if err != nil {
			return err
		}

		result, err := p.Ingest(ctx, indexer.IngestRequest{
			DocumentID: id,
			Path:       path,
			Filename:   filepath.Base(path),
			OCR:        ocr,
		})
		if errors.Is(err, storage.ErrDuplicate) {
			logger.DebugContext(ctx, "skipping already ingested file", "path", path, "document_id", id)
			return nil
		}
		if err != nil {
			return err
		}

		logger.InfoContext(ctx, "inbox file ingested", "path", path, "document_id", id, "chunks", result.Chunks)
		return nil
	}
}

// Watcher ingests PDFs that are created or written in a directory tree.
type Watcher struct {
	dir      string
	ingest   IngestFunc
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup

	// ready is closed once the directory tree is being watched.
	ready chan struct{}
}

// NewWatcher creates a watcher over dir. A debounce of zero uses DefaultDebounce.
func NewWatcher(dir string, ingest IngestFunc, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		ingest:   ingest,
		debounce: debounce,
		pending:  make(map[string]*time.Timer),
		ready:    make(chan struct{}),
	}
}

// ProcessExisting ingests every PDF already in the inbox. Failures are logged and
// counted; processing continues with the next file.
func (w *Watcher) ProcessExisting(ctx context.Context) (ingested, failed int, err error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := Scan(ctx, w.dir)
	if err != nil {
		return 0, 0, err
	}

	for _, file := range files {
		select {
		case <-ctx.Done():
			return ingested, failed, ctx.Err()
		default:
		}

		if err := w.ingest(ctx, file.AbsPath); err != nil {
			failed++
			logger.ErrorContext(ctx, "failed to ingest inbox file", "rel_path", file.RelPath, "error", err)
			continue
		}
		ingested++
	}

	logger.InfoContext(ctx, "inbox scan completed", "total_files", len(files), "success", ingested, "errors", failed)
	return ingested, failed, nil
}

// Run watches the inbox until ctx is cancelled. Pending debounced ingests are
// cancelled on return; an ingest already running is waited for.
func (w *Watcher) Run(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = fsw.Close()
	}()

	if err := w.addTree(fsw, w.dir); err != nil {
		return err
	}
	close(w.ready)
	logger.InfoContext(ctx, "watching inbox", "dir", w.dir, "debounce", w.debounce)

	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "inbox watcher error", "error", err)
		}
	}
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	logger := contextutil.LoggerFromContext(ctx)

	rel, err := filepath.Rel(w.dir, event.Name)
	if err != nil || hasHiddenComponent(rel) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, event.Name); err != nil {
				logger.WarnContext(ctx, "failed to watch new directory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !isPDF(event.Name) {
		return
	}
	w.schedule(ctx, event.Name)
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		if ctx.Err() != nil {
			return
		}
		if err := w.ingest(ctx, path); err != nil {
			contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to ingest inbox file", "path", path, "error", err)
		}
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
