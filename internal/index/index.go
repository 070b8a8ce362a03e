// Package index stores document chunks in a vector store and answers
// document-scoped nearest-neighbour queries over them.
package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"docquery/internal/contextutil"
	"docquery/internal/domain"
	"docquery/internal/retry"
	"docquery/internal/vectorstore"
)

const (
	DefaultTopK          = 5
	DefaultBatchSize     = 32
	DefaultGlossaryLimit = 100
	pageScrollLimit      = 1000
)

var (
	// ErrIndexUnavailable is returned when the embedder or the vector backend fails.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrInvalidQuery is returned for a query without a document id or text.
	ErrInvalidQuery = errors.New("invalid query")
)

// pointNamespace seeds the name-based UUIDs used as point ids.
var pointNamespace = uuid.MustParse("0b6f6b8e-4d0a-4c6e-9a7e-6f1d5d2b9c41")

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Options configures an Index.
type Options struct {
	Collection string
	BatchSize  int
	// MaxDistance drops query results farther than this. Zero disables the floor.
	MaxDistance float64
	Retry       retry.Policy
}

// Stats summarises indexed chunks.
type Stats struct {
	DocumentID   string                    `json:"document_id,omitempty"`
	TotalChunks  int                       `json:"total_chunks"`
	ByDifficulty map[domain.Difficulty]int `json:"by_difficulty"`
	Glossary     int                       `json:"glossary_chunks"`
}

// Index is a document-scoped semantic index. Writes are serialised; reads run concurrently.
type Index struct {
	mu       sync.RWMutex
	store    vectorstore.VectorStore
	embedder Embedder
	opts     Options
}

// New creates an Index over store.
func New(store vectorstore.VectorStore, embedder Embedder, opts Options) *Index {
	if opts.Collection == "" {
		opts.Collection = "document_chunks"
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Retry.Attempts <= 0 {
		opts.Retry = retry.DefaultPolicy
	}
	return &Index{store: store, embedder: embedder, opts: opts}
}

// PointID returns the vector store id for a chunk id.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

// Add embeds and stores chunks. Every chunk is embedded before anything is written,
// and all points go to the backend in one upsert, so a failed embedding leaves the
// index untouched. Re-adding a chunk id overwrites the previous point.
func (i *Index) Add(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	logger := contextutil.LoggerFromContext(ctx)

	if documentID == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidQuery)
	}
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for n, c := range chunks {
		if c.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %s belongs to document %q", ErrInvalidQuery, c.ID, c.DocumentID)
		}
		texts[n] = c.Text
	}

	vectors, err := i.embed(ctx, texts)
	if err != nil {
		return err
	}

	points := make([]vectorstore.Point, len(chunks))
	for n, c := range chunks {
		points[n] = vectorstore.Point{
			ID:   PointID(c.ID),
			Vec:  vectors[n],
			Meta: chunkMeta(c),
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	err = retry.Do(ctx, i.opts.Retry, "index.upsert", func(ctx context.Context) error {
		return i.store.Upsert(ctx, i.opts.Collection, points)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	logger.InfoContext(ctx, "chunks indexed", "document_id", documentID, "chunks", len(chunks))
	return nil
}

// embed embeds texts in batches.
func (i *Index) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.opts.BatchSize {
		end := min(start+i.opts.BatchSize, len(texts))
		batch := texts[start:end]

		out, err := retry.DoValue(ctx, i.opts.Retry, "index.embed", func(ctx context.Context) ([][]float32, error) {
			return i.embedder.EmbedTexts(ctx, batch)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: embedding failed: %v", ErrIndexUnavailable, err)
		}
		if len(out) != len(batch) {
			return nil, fmt.Errorf("%w: embedder returned %d vectors for %d texts", ErrIndexUnavailable, len(out), len(batch))
		}
		vectors = append(vectors, out...)
	}
	return vectors, nil
}

// Query returns up to topK chunks of documentID closest to text, by ascending
// distance with ties broken by sequence number. No match is an empty result.
func (i *Index) Query(ctx context.Context, text, documentID string, topK int, tags domain.TagFilter) ([]domain.RetrievalResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidQuery)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: query text is required", ErrInvalidQuery)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	vectors, err := i.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	filter := vectorstore.Filter{
		DocumentID:   documentID,
		Difficulty:   string(tags.Difficulty),
		GlossaryOnly: tags.GlossaryOnly,
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	hits, err := retry.DoValue(ctx, i.opts.Retry, "index.search", func(ctx context.Context) ([]vectorstore.SearchResult, error) {
		return i.store.Search(ctx, i.opts.Collection, vectors[0], topK, filter)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		// Never return another document's chunks.
		if vectorstore.MetaString(hit.Meta, vectorstore.KeyDocumentID) != documentID {
			continue
		}
		if i.opts.MaxDistance > 0 && hit.Distance > i.opts.MaxDistance {
			continue
		}
		results = append(results, toResult(hit))
	}
	sortResults(results)
	if len(results) > topK {
		results = results[:topK]
	}

	logger.DebugContext(ctx, "index queried", "document_id", documentID, "top_k", topK, "results", len(results))
	return results, nil
}

// DeleteByDocument removes every chunk of documentID and returns how many there were.
func (i *Index) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if documentID == "" {
		return 0, fmt.Errorf("%w: document id is required", ErrInvalidQuery)
	}
	filter := vectorstore.Filter{DocumentID: documentID}

	i.mu.Lock()
	defer i.mu.Unlock()

	count, err := retry.DoValue(ctx, i.opts.Retry, "index.count", func(ctx context.Context) (int, error) {
		return i.store.Count(ctx, i.opts.Collection, filter)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	if count == 0 {
		return 0, nil
	}

	err = retry.Do(ctx, i.opts.Retry, "index.delete", func(ctx context.Context) error {
		return i.store.DeleteByFilter(ctx, i.opts.Collection, filter)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	logger.InfoContext(ctx, "document chunks deleted", "document_id", documentID, "chunks", count)
	return count, nil
}

// Stats counts chunks, optionally for a single document.
func (i *Index) Stats(ctx context.Context, documentID string) (*Stats, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count := func(f vectorstore.Filter) (int, error) {
		f.DocumentID = documentID
		n, err := retry.DoValue(ctx, i.opts.Retry, "index.count", func(ctx context.Context) (int, error) {
			return i.store.Count(ctx, i.opts.Collection, f)
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
		}
		return n, nil
	}

	stats := &Stats{
		DocumentID:   documentID,
		ByDifficulty: make(map[domain.Difficulty]int, len(domain.Difficulties)),
	}
	var err error
	if stats.TotalChunks, err = count(vectorstore.Filter{}); err != nil {
		return nil, err
	}
	for _, d := range domain.Difficulties {
		if stats.ByDifficulty[d], err = count(vectorstore.Filter{Difficulty: string(d)}); err != nil {
			return nil, err
		}
	}
	if stats.Glossary, err = count(vectorstore.Filter{GlossaryOnly: true}); err != nil {
		return nil, err
	}
	return stats, nil
}

// GlossaryChunks lists up to limit glossary-like chunks of a document in sequence
// order. A non-empty difficulty restricts the listing to that tier.
func (i *Index) GlossaryChunks(ctx context.Context, documentID string, limit int, difficulty domain.Difficulty) ([]domain.RetrievalResult, error) {
	if limit <= 0 {
		limit = DefaultGlossaryLimit
	}
	return i.list(ctx, vectorstore.Filter{
		DocumentID:   documentID,
		Difficulty:   string(difficulty),
		GlossaryOnly: true,
	}, limit)
}

// ChunksByPage lists the chunks of one page in sequence order.
func (i *Index) ChunksByPage(ctx context.Context, documentID string, page int) ([]domain.RetrievalResult, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", ErrInvalidQuery)
	}
	return i.list(ctx, vectorstore.Filter{DocumentID: documentID, Page: page}, pageScrollLimit)
}

func (i *Index) list(ctx context.Context, filter vectorstore.Filter, limit int) ([]domain.RetrievalResult, error) {
	if filter.DocumentID == "" {
		return nil, fmt.Errorf("%w: document id is required", ErrInvalidQuery)
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	hits, err := retry.DoValue(ctx, i.opts.Retry, "index.scroll", func(ctx context.Context) ([]vectorstore.SearchResult, error) {
		return i.store.Scroll(ctx, i.opts.Collection, filter, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}

	results := make([]domain.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, toResult(hit))
	}
	sort.SliceStable(results, func(a, b int) bool { return results[a].Seq < results[b].Seq })
	return results, nil
}

// Health checks the vector backend.
func (i *Index) Health(ctx context.Context) error {
	if err := i.store.Health(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return nil
}

func chunkMeta(c domain.Chunk) map[string]any {
	return map[string]any{
		vectorstore.KeyDocumentID: c.DocumentID,
		vectorstore.KeyChunkID:    c.ID,
		vectorstore.KeySeq:        c.Seq,
		vectorstore.KeyPage:       c.Page,
		vectorstore.KeyDifficulty: string(c.Difficulty),
		vectorstore.KeyGlossary:   c.IsGlossary,
		vectorstore.KeyWordCount:  c.WordCount,
		vectorstore.KeyStartChar:  c.StartChar,
		vectorstore.KeyEndChar:    c.EndChar,
		vectorstore.KeyText:       c.Text,
	}
}

func toResult(hit vectorstore.SearchResult) domain.RetrievalResult {
	return domain.RetrievalResult{
		ChunkID:    vectorstore.MetaString(hit.Meta, vectorstore.KeyChunkID),
		Seq:        vectorstore.MetaInt(hit.Meta, vectorstore.KeySeq),
		Page:       vectorstore.MetaInt(hit.Meta, vectorstore.KeyPage),
		Text:       vectorstore.MetaString(hit.Meta, vectorstore.KeyText),
		Difficulty: domain.Difficulty(vectorstore.MetaString(hit.Meta, vectorstore.KeyDifficulty)),
		IsGlossary: vectorstore.MetaBool(hit.Meta, vectorstore.KeyGlossary),
		WordCount:  vectorstore.MetaInt(hit.Meta, vectorstore.KeyWordCount),
		Distance:   hit.Distance,
	}
}

func sortResults(results []domain.RetrievalResult) {
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Distance != results[b].Distance {
			return results[a].Distance < results[b].Distance
		}
		return results[a].Seq < results[b].Seq
	})
}
