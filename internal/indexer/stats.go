package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"docquery/internal/domain"
	"docquery/internal/storage"
)

const (
	// ChunkerVersion identifies the chunking rules. Update it when windowing or
	// tagging changes so that index versions differ.
	ChunkerVersion = "v1.0"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// CoverageStats summarises everything in the document store.
type CoverageStats struct {
	DocsProcessed   int             `json:"docs_processed"`
	DocsWith0Chunks int             `json:"docs_with_0_chunks"`
	ChunksIndexed   int             `json:"chunks_indexed"`
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	ChunkerVersion  string          `json:"chunker_version"`
	IndexVersion    string          `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// IndexVersion hashes the chunker version, the embedding model and the window
// parameters. Documents ingested under different versions are not comparable.
func IndexVersion(embeddingModel string, windowSize, overlap int) string {
	input := fmt.Sprintf("%s|%s|window=%d|overlap=%d", ChunkerVersion, embeddingModel, windowSize, overlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// Coverage computes statistics over every stored document and chunk.
func (p *Pipeline) Coverage(ctx context.Context, indexVersion string) (*CoverageStats, error) {
	docs, err := p.documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	stats := &CoverageStats{
		DocsProcessed:  len(docs),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   indexVersion,
	}

	var tokenCounts []int
	for _, doc := range docs {
		records, err := p.chunks.ListByDocument(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list chunks for %s: %w", doc.ID, err)
		}
		if len(records) == 0 {
			stats.DocsWith0Chunks++
		}
		for _, r := range records {
			tokenCounts = append(tokenCounts, estimateTokens(r.Text))
		}
		stats.ChunksIndexed += len(records)
	}

	stats.ChunkTokenStats = computeTokenStats(tokenCounts)
	return stats, nil
}

// TokenStats computes token statistics for chunks.
func TokenStats(chunks []domain.Chunk) ChunkTokenStats {
	counts := make([]int, len(chunks))
	for i, c := range chunks {
		counts[i] = estimateTokens(c.Text)
	}
	return computeTokenStats(counts)
}

// RecordTokenStats is TokenStats over persisted chunks.
func RecordTokenStats(records []storage.ChunkRecord) ChunkTokenStats {
	counts := make([]int, len(records))
	for i, r := range records {
		counts[i] = estimateTokens(r.Text)
	}
	return computeTokenStats(counts)
}

// estimateTokens approximates a token count from the rune count, with a minimum of 1.
func estimateTokens(text string) int {
	tokens := int(math.Round(float64(utf8.RuneCountInString(text)) / TokensPerRune))
	if tokens < 1 {
		return 1
	}
	return tokens
}

func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range tokenCounts {
		sum += count
	}
	mean := float64(sum) / float64(len(tokenCounts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
