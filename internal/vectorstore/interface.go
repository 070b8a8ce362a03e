package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docquery/internal/vectorstore VectorStore

import (
	"context"
	"sort"
)

// Payload keys stored with every chunk point.
const (
	KeyDocumentID = "document_id"
	KeyChunkID    = "chunk_id"
	KeySeq        = "seq"
	KeyPage       = "page"
	KeyDifficulty = "difficulty"
	KeyGlossary   = "is_glossary"
	KeyWordCount  = "word_count"
	KeyStartChar  = "start_char"
	KeyEndChar    = "end_char"
	KeyText       = "text"
)

// Point represents a vector point with metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult represents a search result from vector search.
// Distance is a cosine distance: 0 for identical direction, lower is closer.
type SearchResult struct {
	PointID  string
	Distance float64
	Meta     map[string]any
}

// Filter restricts an operation to matching points. Zero fields are ignored.
type Filter struct {
	DocumentID   string
	Difficulty   string
	GlossaryOnly bool
	Page         int
}

// IsEmpty reports whether the filter matches every point.
func (f Filter) IsEmpty() bool {
	return f == Filter{}
}

// Matches reports whether meta satisfies the filter.
func (f Filter) Matches(meta map[string]any) bool {
	if f.DocumentID != "" && MetaString(meta, KeyDocumentID) != f.DocumentID {
		return false
	}
	if f.Difficulty != "" && MetaString(meta, KeyDifficulty) != f.Difficulty {
		return false
	}
	if f.GlossaryOnly && !MetaBool(meta, KeyGlossary) {
		return false
	}
	if f.Page > 0 && MetaInt(meta, KeyPage) != f.Page {
		return false
	}
	return true
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search restricted by filter, ordered as by
	// SortResults. Points tied at the k-th distance are chosen by sequence number.
	Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error)

	// Scroll lists up to limit points matching filter, lowest sequence number first.
	Scroll(ctx context.Context, collection string, filter Filter, limit int) ([]SearchResult, error)

	// Count returns the number of points matching filter.
	Count(ctx context.Context, collection string, filter Filter) (int, error)

	// Delete removes points by their IDs.
	Delete(ctx context.Context, collection string, ids []string) error

	// DeleteByFilter removes every point matching filter.
	DeleteByFilter(ctx context.Context, collection string, filter Filter) error

	// Health checks that the backend is reachable.
	Health(ctx context.Context) error
}

// SortResults orders results by ascending distance, then ascending sequence number,
// then point id.
func SortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return lessBySeq(results[i], results[j])
	})
}

func lessBySeq(a, b SearchResult) bool {
	sa, sb := MetaInt(a.Meta, KeySeq), MetaInt(b.Meta, KeySeq)
	if sa != sb {
		return sa < sb
	}
	return a.PointID < b.PointID
}
