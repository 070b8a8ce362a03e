package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"docquery/internal/contextutil"
	"docquery/internal/domain"
	"docquery/internal/service"
)

// multipartOverhead is allowed on top of the file size limit for form fields and boundaries.
const multipartOverhead = 1 << 20

// DocumentsHandler serves the document endpoints.
type DocumentsHandler struct {
	documents      service.DocumentService
	maxUploadBytes int64
	defaultOCR     bool
}

// NewDocumentsHandler creates a new DocumentsHandler. maxUploadBytes is the file
// size ceiling; defaultOCR applies when the upload does not set "ocr".
func NewDocumentsHandler(documents service.DocumentService, maxUploadBytes int64, defaultOCR bool) *DocumentsHandler {
	return &DocumentsHandler{
		documents:      documents,
		maxUploadBytes: maxUploadBytes,
		defaultOCR:     defaultOCR,
	}
}

// DeleteResponse is returned by DELETE /api/v1/documents/{id}.
//
// swagger:model DeleteResponse
type DeleteResponse struct {
	DocumentID    string `json:"document_id"`
	ChunksRemoved int    `json:"chunks_removed"`
}

// Upload handles POST /api/v1/documents (multipart: file, document_id, ocr).
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		logger.WarnContext(ctx, "invalid multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	ocr := h.defaultOCR
	if raw := strings.TrimSpace(r.FormValue("ocr")); raw != "" {
		ocr, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid ocr value")
			return
		}
	}

	result, err := h.documents.Upload(ctx, service.UploadRequest{
		DocumentID: r.FormValue("document_id"),
		Filename:   header.Filename,
		Body:       file,
		OCR:        ocr,
	})
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to ingest document")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, result)
}

// List handles GET /api/v1/documents.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docs, err := h.documents.List(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list documents")
		return
	}
	writeJSON(ctx, w, http.StatusOK, docs)
}

// Get handles GET /api/v1/documents/{id}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc, err := h.documents.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, doc)
}

// Delete handles DELETE /api/v1/documents/{id}.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	removed, err := h.documents.Delete(ctx, id)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to delete document")
		return
	}
	writeJSON(ctx, w, http.StatusOK, DeleteResponse{DocumentID: id, ChunksRemoved: removed})
}

// Stats handles GET /api/v1/documents/{id}/stats.
func (h *DocumentsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.documents.Stats(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

// Coverage handles GET /api/v1/stats.
func (h *DocumentsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.documents.Coverage(ctx)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to compute stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}

// Glossary handles GET /api/v1/documents/{id}/glossary?limit=N&difficulty=D.
func (h *DocumentsHandler) Glossary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	difficulty := domain.Difficulty(r.URL.Query().Get("difficulty"))
	results, err := h.documents.Glossary(ctx, chi.URLParam(r, "id"), limit, difficulty)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to list glossary")
		return
	}
	writeJSON(ctx, w, http.StatusOK, results)
}

// Topics handles GET /api/v1/documents/{id}/topics.
func (h *DocumentsHandler) Topics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	topics, err := h.documents.Topics(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get topics")
		return
	}
	writeJSON(ctx, w, http.StatusOK, topics)
}

// Page handles GET /api/v1/documents/{id}/pages/{page}.
func (h *DocumentsHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid page number")
		return
	}

	chunks, err := h.documents.Page(ctx, chi.URLParam(r, "id"), page)
	if err != nil {
		handleServiceError(ctx, w, err, "Failed to get page")
		return
	}
	writeJSON(ctx, w, http.StatusOK, chunks)
}
