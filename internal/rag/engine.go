package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_rag.go -package=mocks docquery/internal/rag Retriever,Generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"docquery/internal/contextutil"
	"docquery/internal/domain"
	"docquery/internal/gateway"
	"docquery/internal/guard"
	"docquery/internal/retry"
	"docquery/internal/service"
	"docquery/internal/storage"
	"docquery/internal/textutil"
)

const (
	// NoContextMessage is returned when retrieval finds nothing.
	NoContextMessage = "I couldn't find relevant information in the document to answer your question."

	defaultTopK           = 5
	maxTopK               = 20
	maxRawAnswerRunes     = 500
	maxSourceTextRunes    = 200
	maxSourceChunks       = 3
	defaultSourceSection  = "Document Content"
	defaultLanguageLevel  = "Intermediate"
	defaultTargetLanguage = "English"
	answerTemperature     = 0.7
)

// ErrAnswerUnavailable is returned when generation keeps failing. The last
// generation error is wrapped.
var ErrAnswerUnavailable = errors.New("answer unavailable")

// Retriever finds the chunks of a document closest to a question.
// *index.Index satisfies it.
type Retriever interface {
	Query(ctx context.Context, text, documentID string, topK int, filter domain.TagFilter) ([]domain.RetrievalResult, error)
}

// Generator produces text for a prompt. *gateway.Gateway satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts gateway.Options) (string, error)
}

// Guard screens a question against a document's topics. *guard.Guard satisfies it.
type Guard interface {
	Check(ctx context.Context, topics guard.Topics, question string) guard.Verdict
}

// Options configure an Engine.
type Options struct {
	// Guard, if set, screens questions before retrieval. It needs Documents to look up topics.
	Guard     Guard
	Documents storage.DocumentStore
	Scoring   ScoringConfig
	Retry     retry.Policy
}

// Engine answers questions about indexed documents.
type Engine struct {
	retriever Retriever
	generator Generator
	guard     Guard
	documents storage.DocumentStore
	scoring   ScoringConfig
	policy    retry.Policy
	markdown  goldmark.Markdown
}

// NewEngine creates a new RAG engine.
func NewEngine(retriever Retriever, generator Generator, opts Options) *Engine {
	if opts.Scoring == (ScoringConfig{}) {
		opts.Scoring = DefaultScoring
	}
	if opts.Retry.Attempts == 0 {
		opts.Retry = retry.DefaultPolicy
	}
	return &Engine{
		retriever: retriever,
		generator: generator,
		guard:     opts.Guard,
		documents: opts.Documents,
		scoring:   opts.Scoring,
		policy:    opts.Retry,
		markdown:  goldmark.New(),
	}
}

// AnswerQuery retrieves context for req and generates a scored answer. It never
// returns a fabricated answer: when generation fails the error wraps
// ErrAnswerUnavailable.
func (e *Engine) AnswerQuery(ctx context.Context, req AskRequest) (*Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	if err := normalize(&req); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "answering question",
		"document_id", req.DocumentID,
		"question_length", len(req.Question),
		"top_k", req.TopK,
		"difficulty", req.Difficulty,
		"glossary_only", req.GlossaryOnly,
	)

	if e.guard != nil && e.documents != nil {
		doc, err := e.documents.GetByID(ctx, req.DocumentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("document %s: %w", req.DocumentID, service.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to load document: %w", err)
		}
		verdict := e.guard.Check(ctx, guard.Topics{Title: doc.Title, Keywords: doc.Keywords}, req.Question)
		if !verdict.Allowed {
			logger.InfoContext(ctx, "question blocked", "document_id", req.DocumentID, "reason", verdict.Reason)
			return &Answer{
				Blocked:      true,
				GuardReason:  verdict.Reason,
				GuardScore:   verdict.Score,
				Message:      verdict.Message,
				SourceChunks: []SourceChunk{},
			}, nil
		}
	}

	results, err := e.retriever.Query(ctx, req.Question, req.DocumentID, req.TopK, domain.TagFilter{
		Difficulty:   req.Difficulty,
		GlossaryOnly: req.GlossaryOnly,
	})
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "document_id", req.DocumentID, "error", err)
		return nil, fmt.Errorf("failed to retrieve context: %w", err)
	}

	if len(results) == 0 {
		logger.InfoContext(ctx, "no context found", "document_id", req.DocumentID)
		return &Answer{
			Answer:        NoContextMessage,
			NoContext:     true,
			LanguageLevel: req.LanguageLevel,
			SourceChunks:  []SourceChunk{},
		}, nil
	}

	prompt := BuildPrompt(req, results)
	text, err := retry.DoValue(ctx, e.policy, "answer generation", func(ctx context.Context) (string, error) {
		text, err := e.generator.Generate(ctx, prompt, gateway.Options{Temperature: answerTemperature, Block: true})
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", errors.New("empty generation")
		}
		return text, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnswerUnavailable, err)
	}

	answer := parseAnswer(text, results[0].Page)
	answer.LanguageLevel = req.LanguageLevel

	distances := make([]float64, len(results))
	for i, r := range results {
		distances[i] = r.Distance
	}
	answer.Confidence = Confidence(answer.Answer, distances, e.scoring)
	answer.SourceChunks = sourceChunks(results)

	if html, err := e.renderHTML(answer.Answer); err != nil {
		logger.WarnContext(ctx, "failed to render answer markdown", "error", err)
	} else {
		answer.AnswerHTML = html
	}

	logger.InfoContext(ctx, "question answered",
		"document_id", req.DocumentID,
		"chunks_used", len(results),
		"confidence", answer.Confidence,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return answer, nil
}

func normalize(req *AskRequest) error {
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	req.Question = strings.TrimSpace(req.Question)
	if req.DocumentID == "" {
		return &service.ValidationError{Field: "document_id", Message: "document_id is required"}
	}
	if req.Question == "" {
		return &service.ValidationError{Field: "question", Message: "question is required"}
	}
	if req.TopK < 0 {
		return &service.ValidationError{Field: "top_k", Message: "top_k must not be negative"}
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}
	req.TopK = min(req.TopK, maxTopK)
	if _, err := domain.ParseDifficulty(string(req.Difficulty)); err != nil {
		return &service.ValidationError{Field: "difficulty", Message: err.Error()}
	}
	if req.LanguageLevel == "" {
		req.LanguageLevel = defaultLanguageLevel
	}
	if req.TargetLanguage == "" {
		req.TargetLanguage = defaultTargetLanguage
	}
	return nil
}

// BuildPrompt formats the retrieved chunks and the question for the model.
func BuildPrompt(req AskRequest, results []domain.RetrievalResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "User's Language Level: %s\n", req.LanguageLevel)
	fmt.Fprintf(&b, "Target Language: %s\n\n", req.TargetLanguage)

	b.WriteString("Context from the document:\n")
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Page %d] %s", r.Page, r.Text)
	}

	fmt.Fprintf(&b, "\n\nUser's Question: %s\n\n", req.Question)
	fmt.Fprintf(&b, "Answer the question using ONLY the provided context. Adapt your explanation to the %s level "+
		"and write it in %s. If the context does not contain the answer, say so.\n", req.LanguageLevel, req.TargetLanguage)
	b.WriteString(`Respond with a JSON object: {"answer": "...", "source_section": "...", "page_number": 1}`)
	return b.String()
}

type answerPayload struct {
	Answer        string          `json:"answer"`
	SourceSection string          `json:"source_section"`
	PageNumber    json.RawMessage `json:"page_number"`
}

// parseAnswer reads the JSON answer shape if the model produced one and falls back
// to the raw text otherwise.
func parseAnswer(text string, bestPage int) *Answer {
	answer := &Answer{SourceSection: defaultSourceSection, PageNumber: bestPage}

	var payload answerPayload
	if raw, ok := textutil.JSONObject(text); ok && json.Unmarshal([]byte(raw), &payload) == nil {
		answer.Answer = strings.TrimSpace(payload.Answer)
		if s := strings.TrimSpace(payload.SourceSection); s != "" {
			answer.SourceSection = s
		}
		if page, ok := parsePage(payload.PageNumber); ok {
			answer.PageNumber = page
		}
	}
	if answer.Answer == "" {
		answer.Answer = truncateRunes(strings.TrimSpace(text), maxRawAnswerRunes)
	}
	return answer
}

// parsePage accepts a page number written as a JSON number or string.
func parsePage(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}

func sourceChunks(results []domain.RetrievalResult) []SourceChunk {
	n := min(len(results), maxSourceChunks)
	chunks := make([]SourceChunk, n)
	for i := 0; i < n; i++ {
		chunks[i] = SourceChunk{
			ChunkID:    results[i].ChunkID,
			Page:       results[i].Page,
			Text:       truncateRunes(results[i].Text, maxSourceTextRunes),
			Confidence: 1 - results[i].Distance,
		}
	}
	return chunks
}

func (e *Engine) renderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := e.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
