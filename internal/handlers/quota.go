package handlers

import (
	"net/http"

	"docquery/internal/gateway"
)

// QuotaReporter reports generative rate-limit usage.
type QuotaReporter interface {
	QuotaStatus() gateway.QuotaStatus
}

// QuotaHandler serves GET /api/v1/quota.
type QuotaHandler struct {
	reporter QuotaReporter
}

// NewQuotaHandler creates a new QuotaHandler.
func NewQuotaHandler(reporter QuotaReporter) *QuotaHandler {
	return &QuotaHandler{reporter: reporter}
}

func (h *QuotaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, h.reporter.QuotaStatus())
}
