package storage

import (
	"time"

	"docquery/internal/domain"
)

// DocumentRecord is the persisted summary of an ingested document.
type DocumentRecord struct {
	ID                 string    `json:"id"`
	Filename           string    `json:"filename"`
	BlobKey            string    `json:"blob_key,omitempty"`
	PageCount          int       `json:"page_count"`
	SizeBytes          int64     `json:"size_bytes"`
	Language           string    `json:"language"`
	LanguageName       string    `json:"language_name"`
	LanguageConfidence float64   `json:"language_confidence"`
	Title              string    `json:"title,omitempty"`
	Author             string    `json:"author,omitempty"`
	Keywords           []string  `json:"keywords"` // Topic keywords used by the relevance guard
	ChunkCount         int       `json:"chunk_count"`
	CreatedAt          time.Time `json:"created_at"`
	// Outline is written with the document when set. Read it with GetOutline.
	Outline *domain.Outline `json:"-"`
}

// ChunkRecord is a persisted chunk. It mirrors domain.Chunk.
type ChunkRecord struct {
	ID         string            `json:"chunk_id"`
	DocumentID string            `json:"document_id"`
	Seq        int               `json:"seq"`
	Page       int               `json:"page"`
	StartChar  int               `json:"start_char"`
	EndChar    int               `json:"end_char"`
	WordCount  int               `json:"word_count"`
	Difficulty domain.Difficulty `json:"difficulty"`
	IsGlossary bool              `json:"is_glossary"`
	Text       string            `json:"text"`
}

// NewChunkRecord copies a domain chunk.
func NewChunkRecord(c domain.Chunk) ChunkRecord {
	return ChunkRecord{
		ID:         c.ID,
		DocumentID: c.DocumentID,
		Seq:        c.Seq,
		Page:       c.Page,
		StartChar:  c.StartChar,
		EndChar:    c.EndChar,
		WordCount:  c.WordCount,
		Difficulty: c.Difficulty,
		IsGlossary: c.IsGlossary,
		Text:       c.Text,
	}
}
