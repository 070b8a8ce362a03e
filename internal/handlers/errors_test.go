package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"docquery/internal/extraction"
	"docquery/internal/gateway"
	"docquery/internal/index"
	"docquery/internal/rag"
	"docquery/internal/service"
	"docquery/internal/storage"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Field: "question", Message: "cannot be empty"}, http.StatusBadRequest},
		{"invalid input", fmt.Errorf("x: %w", service.ErrInvalidInput), http.StatusBadRequest},
		{"extraction validation", &extraction.ValidationError{Path: "a.pdf", Err: extraction.ErrInvalidFormat}, http.StatusBadRequest},
		{"too large", fmt.Errorf("%w: %w", service.ErrInvalidInput, &extraction.ValidationError{Err: extraction.ErrTooLarge}), http.StatusRequestEntityTooLarge},
		{"service not found", fmt.Errorf("x: %w", service.ErrNotFound), http.StatusNotFound},
		{"storage not found", storage.ErrNotFound, http.StatusNotFound},
		{"conflict", service.ErrConflict, http.StatusConflict},
		{"rate limit exceeded", fmt.Errorf("x: %w", gateway.ErrRateLimitExceeded), http.StatusTooManyRequests},
		{"rate limit timeout", gateway.ErrRateLimitTimeout, http.StatusTooManyRequests},
		{"index unavailable", fmt.Errorf("%w: qdrant down", index.ErrIndexUnavailable), http.StatusServiceUnavailable},
		{"answer unavailable", fmt.Errorf("%w: %w", rag.ErrAnswerUnavailable, gateway.ErrGeneration), http.StatusBadGateway},
		{"generation", gateway.ErrGeneration, http.StatusBadGateway},
		{"external", service.ErrExternalService, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := errorStatus(tt.err, "default")
			if got != tt.want {
				t.Errorf("errorStatus() = %d, want %d", got, tt.want)
			}
			if msg == "" {
				t.Error("errorStatus() returned an empty message")
			}
		})
	}
}
