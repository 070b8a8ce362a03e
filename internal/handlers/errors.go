package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"docquery/internal/contextutil"
	"docquery/internal/extraction"
	"docquery/internal/gateway"
	"docquery/internal/index"
	"docquery/internal/rag"
	"docquery/internal/service"
	"docquery/internal/storage"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	status, message := errorStatus(err, defaultMsg)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "service error", "error", err, "status", status)
	} else {
		logger.WarnContext(ctx, "request rejected", "error", err, "status", status)
	}
	writeError(w, status, message)
}

func errorStatus(err error, defaultMsg string) (int, string) {
	var validationErr *service.ValidationError
	var extractionErr *extraction.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Error())
	case errors.Is(err, extraction.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case errors.As(err, &extractionErr):
		return http.StatusBadRequest, extractionErr.Error()
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid input"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, service.ErrConflict), errors.Is(err, storage.ErrDuplicate):
		return http.StatusConflict, "Document already exists"
	case errors.Is(err, gateway.ErrRateLimitExceeded), errors.Is(err, gateway.ErrRateLimitTimeout):
		return http.StatusTooManyRequests, "Generation rate limit reached, try again later"
	case errors.Is(err, index.ErrIndexUnavailable):
		return http.StatusServiceUnavailable, "Index unavailable"
	case errors.Is(err, rag.ErrAnswerUnavailable), errors.Is(err, gateway.ErrGeneration),
		errors.Is(err, service.ErrExternalService):
		return http.StatusBadGateway, "External service error"
	default:
		return http.StatusInternalServerError, defaultMsg
	}
}

// writeJSON writes v with the given status.
func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
