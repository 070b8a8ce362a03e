package handlers

import (
	"encoding/json"
	"net/http"

	"docquery/internal/contextutil"
	"docquery/internal/service"
)

// GenerateHandler handles raw prompt requests.
type GenerateHandler struct {
	generateService service.GenerateService
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(generateService service.GenerateService) *GenerateHandler {
	return &GenerateHandler{generateService: generateService}
}

// GenerateRequest represents the HTTP request payload for a raw prompt.
//
// swagger:model GenerateRequest
type GenerateRequest struct {
	Prompt      string   `json:"prompt"`
	Temperature *float32 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	// Block waits for a rate-limit slot instead of failing with 429.
	Block bool `json:"block,omitempty"`
}

// GenerateResponse represents the HTTP response payload for a raw prompt.
//
// swagger:model GenerateResponse
type GenerateResponse struct {
	Text string `json:"text"`
}

// ServeHTTP handles POST /api/v1/generate.
func (h *GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.generateService.Generate(ctx, service.GenerateRequest{
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Block:       req.Block,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to generate")
		return
	}

	writeJSON(ctx, w, http.StatusOK, GenerateResponse{Text: resp.Text})
}
