package domain

import (
	"fmt"
	"time"
)

// Difficulty is the estimated reading difficulty of a chunk.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// ParseDifficulty validates a difficulty tier name. An empty string is allowed and returns "".
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case "", Beginner, Intermediate, Advanced:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Difficulties lists every tier in ascending order.
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

// Page is the extracted text of one document page.
type Page struct {
	Number    int    `json:"page_number"` // 1-based
	Text      string `json:"text"`
	WordCount int    `json:"word_count"`
	CharCount int    `json:"char_count"`
	OCR       bool   `json:"ocr,omitempty"` // Text came from image recognition
}

// Metadata holds document info dictionary fields.
type Metadata struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
}

// Document is the result of a successful extraction. It is immutable once created.
type Document struct {
	ID                 string        `json:"id"`
	Filename           string        `json:"filename"`
	Pages              []Page        `json:"pages"`
	FullText           string        `json:"-"`
	Language           string        `json:"language"`
	LanguageName       string        `json:"language_name"`
	LanguageConfidence float64       `json:"language_confidence"`
	Metadata           Metadata      `json:"metadata"`
	SizeBytes          int64         `json:"size_bytes"`
	Duration           time.Duration `json:"-"`
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Chunk is a window of page text, the unit of indexing and retrieval.
type Chunk struct {
	ID         string     `json:"chunk_id"` // "{documentID}_{page}_{seq}"
	DocumentID string     `json:"document_id"`
	Seq        int        `json:"seq"` // Sequence within the document, across pages
	Page       int        `json:"page"`
	StartChar  int        `json:"start_char"`
	EndChar    int        `json:"end_char"`
	Text       string     `json:"text"`
	WordCount  int        `json:"word_count"`
	IsGlossary bool       `json:"is_glossary"`
	Difficulty Difficulty `json:"difficulty"`
}

// ChunkID builds the identifier for a chunk.
func ChunkID(documentID string, page, seq int) string {
	return fmt.Sprintf("%s_%d_%d", documentID, page, seq)
}

// RetrievalResult is one ranked hit of an index query. Lower distance means closer.
type RetrievalResult struct {
	ChunkID    string     `json:"chunk_id"`
	Seq        int        `json:"seq"`
	Page       int        `json:"page"`
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
	IsGlossary bool       `json:"is_glossary"`
	WordCount  int        `json:"word_count"`
	Distance   float64    `json:"distance"`
}

// TagFilter narrows a document-scoped query.
type TagFilter struct {
	Difficulty   Difficulty
	GlossaryOnly bool
}

// Topic is a subject a document covers.
type Topic struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Difficulty    Difficulty `json:"difficulty"`
	KeyVocabulary []string   `json:"key_vocabulary"`
}

// Term is a vocabulary entry with a plain-language definition.
type Term struct {
	Word       string     `json:"word"`
	Definition string     `json:"definition"`
	Difficulty Difficulty `json:"difficulty"`
}

// Outline summarises what a document teaches. It is produced once at ingest.
type Outline struct {
	Topics        []Topic  `json:"topics"`
	Vocabulary    []Term   `json:"vocabulary"`
	GrammarPoints []string `json:"grammar_points"`
}

// EmptyOutline returns an outline with non-nil empty lists.
func EmptyOutline() Outline {
	return Outline{Topics: []Topic{}, Vocabulary: []Term{}, GrammarPoints: []string{}}
}
