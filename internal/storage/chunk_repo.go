package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks docquery/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"fmt"

	"docquery/internal/domain"
)

// ChunkStore defines the interface for chunk read operations. Chunks are written
// together with their document by DocumentStore.InsertWithChunks.
type ChunkStore interface {
	// ListByDocument returns all chunks of a document ordered by seq.
	ListByDocument(ctx context.Context, documentID string) ([]ChunkRecord, error)
	// ListByPage returns the chunks of one page ordered by seq.
	ListByPage(ctx context.Context, documentID string, page int) ([]ChunkRecord, error)
	// CountByDocument returns the number of chunks stored for a document.
	CountByDocument(ctx context.Context, documentID string) (int, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

const chunkColumns = "id, document_id, seq, page, start_char, end_char, word_count, difficulty, is_glossary, text"

// ListByDocument returns all chunks of a document ordered by seq.
// Returns an empty slice if no chunks exist (not an error).
func (r *ChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]ChunkRecord, error) {
	return r.query(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE document_id = ? ORDER BY seq", documentID)
}

// ListByPage returns the chunks of one page ordered by seq.
func (r *ChunkRepo) ListByPage(ctx context.Context, documentID string, page int) ([]ChunkRecord, error) {
	return r.query(ctx, "SELECT "+chunkColumns+" FROM chunks WHERE document_id = ? AND page = ? ORDER BY seq", documentID, page)
}

// CountByDocument returns the number of chunks stored for a document.
func (r *ChunkRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks WHERE document_id = ?", documentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

func (r *ChunkRepo) query(ctx context.Context, query string, args ...any) ([]ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := []ChunkRecord{}
	for rows.Next() {
		var c ChunkRecord
		var difficulty string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Seq, &c.Page, &c.StartChar, &c.EndChar,
			&c.WordCount, &difficulty, &c.IsGlossary, &c.Text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		c.Difficulty = domain.Difficulty(difficulty)
		chunks = append(chunks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}
