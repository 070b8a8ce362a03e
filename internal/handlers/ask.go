package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docquery/internal/contextutil"
	"docquery/internal/domain"
	"docquery/internal/rag"
)

// Answerer answers questions about a document.
type Answerer interface {
	AnswerQuery(ctx context.Context, req rag.AskRequest) (*rag.Answer, error)
}

// AskHandler handles HTTP requests for RAG queries.
type AskHandler struct {
	answerer Answerer
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(answerer Answerer) *AskHandler {
	return &AskHandler{answerer: answerer}
}

// AskRequest represents the HTTP request payload for RAG queries. The document id
// comes from the URL.
//
// swagger:model AskRequest
type AskRequest struct {
	Question       string `json:"question"`
	TopK           int    `json:"top_k,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
	GlossaryOnly   bool   `json:"glossary_only,omitempty"`
	LanguageLevel  string `json:"language_level,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
}

// ServeHTTP handles POST /api/v1/documents/{id}/ask.
//
// A blocked question or a question with no matching context is still a 200; the
// answer carries the blocked or no_context flag.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	answer, err := h.answerer.AnswerQuery(ctx, rag.AskRequest{
		DocumentID:     chi.URLParam(r, "id"),
		Question:       req.Question,
		TopK:           req.TopK,
		Difficulty:     domain.Difficulty(req.Difficulty),
		GlossaryOnly:   req.GlossaryOnly,
		LanguageLevel:  req.LanguageLevel,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to answer question")
		return
	}

	writeJSON(ctx, w, http.StatusOK, answer)
}
