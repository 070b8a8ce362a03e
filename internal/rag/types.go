package rag

import "docquery/internal/domain"

// AskRequest represents a question about one document.
type AskRequest struct {
	// DocumentID scopes retrieval to a single document. Required.
	DocumentID string `json:"document_id"`
	// Question is the user's question to answer. Required.
	Question string `json:"question"`
	// TopK is the number of chunks to retrieve. Defaults to 5.
	TopK int `json:"top_k,omitempty"`
	// Difficulty optionally restricts retrieval to one tier.
	Difficulty domain.Difficulty `json:"difficulty,omitempty"`
	// GlossaryOnly restricts retrieval to glossary chunks.
	GlossaryOnly bool `json:"glossary_only,omitempty"`
	// LanguageLevel adapts the explanation ("Beginner", "Intermediate", "Advanced").
	LanguageLevel string `json:"language_level,omitempty"`
	// TargetLanguage is the language the answer is written in.
	TargetLanguage string `json:"target_language,omitempty"`
}

// SourceChunk is a retrieved passage shown alongside the answer.
type SourceChunk struct {
	ChunkID    string  `json:"chunk_id"`
	Page       int     `json:"page"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Answer is the result of AnswerQuery.
type Answer struct {
	Answer        string        `json:"answer"`
	AnswerHTML    string        `json:"answer_html,omitempty"`
	SourceSection string        `json:"source_section,omitempty"`
	PageNumber    int           `json:"page_number,omitempty"`
	Confidence    float64       `json:"confidence"`
	LanguageLevel string        `json:"language_level,omitempty"`
	SourceChunks  []SourceChunk `json:"source_chunks"`

	// NoContext is set when retrieval found nothing to answer from.
	NoContext bool `json:"no_context,omitempty"`
	// Blocked is set when the guard rejected the question.
	Blocked     bool    `json:"blocked,omitempty"`
	GuardReason string  `json:"guard_reason,omitempty"`
	GuardScore  float64 `json:"guard_score,omitempty"`
	Message     string  `json:"message,omitempty"`
}
