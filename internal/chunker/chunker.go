package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"docquery/internal/domain"
)

const (
	// DefaultWindowSize is the default window length in characters.
	DefaultWindowSize = 1000
	// DefaultOverlap is the default number of characters shared by consecutive windows.
	DefaultOverlap = 200

	minDifficultyTokens   = 10
	beginnerMaxAvgLen     = 4.5
	intermediateMaxAvgLen = 6.0
	glossaryPatternLimit  = 3
)

// ErrInvalidParams is returned by New for an unusable window/overlap pair.
var ErrInvalidParams = errors.New("invalid chunking parameters")

// glossaryKeywords mark a chunk as vocabulary or reference material.
var glossaryKeywords = []string{
	"vocabulary", "vocabulario", "vocabulaire", "wortschatz",
	"glossary", "glosario",
	"terms", "definitions",
	"palabras clave", "key words", "word list",
}

// Chunker splits page text into overlapping fixed-size windows.
type Chunker struct {
	windowSize int
	overlap    int
}

// New creates a Chunker. overlap must be in [0, windowSize).
func New(windowSize, overlap int) (*Chunker, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("%w: window size must be positive, got %d", ErrInvalidParams, windowSize)
	}
	if overlap < 0 || overlap >= windowSize {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidParams, windowSize, overlap)
	}
	return &Chunker{windowSize: windowSize, overlap: overlap}, nil
}

// WindowSize returns the configured window length.
func (c *Chunker) WindowSize() int { return c.windowSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits every page of a document. Sequence numbers start at 0 and run across
// pages; no chunk spans a page boundary. Spans are counted in characters, not bytes.
func (c *Chunker) Chunk(documentID string, pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	seq := 0
	for _, page := range pages {
		for _, w := range c.windows(page.Text) {
			chunks = append(chunks, domain.Chunk{
				ID:         domain.ChunkID(documentID, page.Number, seq),
				DocumentID: documentID,
				Seq:        seq,
				Page:       page.Number,
				StartChar:  w.start,
				EndChar:    w.end,
				Text:       w.text,
				WordCount:  len(strings.Fields(w.text)),
				IsGlossary: IsGlossary(w.text),
				Difficulty: EstimateDifficulty(w.text),
			})
			seq++
		}
	}
	return chunks
}

type window struct {
	start, end int
	text       string
}

// windows returns the non-empty windows of text.
func (c *Chunker) windows(text string) []window {
	runes := []rune(text)
	n := len(runes)
	step := c.windowSize - c.overlap

	var out []window
	for start := 0; start < n; start += step {
		end := min(start+c.windowSize, n)
		if trimmed := strings.TrimSpace(string(runes[start:end])); trimmed != "" {
			out = append(out, window{start: start, end: end, text: trimmed})
		}
		if end == n {
			break
		}
	}
	return out
}

// IsGlossary reports whether text looks like a vocabulary list or glossary: it
// mentions one of the glossary keywords or has more than three term/definition pairs.
func IsGlossary(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range glossaryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	pairs := strings.Count(text, ":") + strings.Count(text, " - ")
	return pairs > glossaryPatternLimit
}

// EstimateDifficulty grades text by its average word length. Short texts are
// always Beginner.
func EstimateDifficulty(text string) domain.Difficulty {
	words := strings.Fields(text)
	if len(words) < minDifficultyTokens {
		return domain.Beginner
	}

	total := 0
	for _, w := range words {
		total += utf8.RuneCountInString(w)
	}
	avg := float64(total) / float64(len(words))

	switch {
	case avg < beginnerMaxAvgLen:
		return domain.Beginner
	case avg < intermediateMaxAvgLen:
		return domain.Intermediate
	default:
		return domain.Advanced
	}
}
