package service

//go:generate mockgen -destination=mocks/mock_documents.go -package=mocks docquery/internal/service Pipeline,IndexReader
//go:generate mockgen -destination=mocks/mock_document_service.go -package=mocks -mock_names=DocumentService=MockDocumentService docquery/internal/service DocumentService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"docquery/internal/blobstore"
	"docquery/internal/contextutil"
	"docquery/internal/domain"
	"docquery/internal/extraction"
	"docquery/internal/index"
	"docquery/internal/indexer"
	"docquery/internal/storage"
)

// Pipeline ingests and deletes documents.
type Pipeline interface {
	Reserve(ctx context.Context, documentID string) error
	Release(ctx context.Context, documentID string)
	Ingest(ctx context.Context, req indexer.IngestRequest) (*indexer.IngestResult, error)
	Delete(ctx context.Context, documentID string) (int, error)
	Coverage(ctx context.Context, indexVersion string) (*indexer.CoverageStats, error)
}

// IndexReader is the read side of the vector index used for document views.
type IndexReader interface {
	Stats(ctx context.Context, documentID string) (*index.Stats, error)
	GlossaryChunks(ctx context.Context, documentID string, limit int, difficulty domain.Difficulty) ([]domain.RetrievalResult, error)
}

// UploadRequest is a document file to store and ingest.
type UploadRequest struct {
	DocumentID string
	Filename   string
	Body       io.Reader
	OCR        bool
}

// DocumentStats combines the stored record with index and token statistics.
type DocumentStats struct {
	Document   *storage.DocumentRecord `json:"document"`
	Index      *index.Stats            `json:"index"`
	TokenStats indexer.ChunkTokenStats `json:"chunk_token_stats"`
}

// PageChunks lists the chunks of one page.
type PageChunks struct {
	DocumentID string                `json:"document_id"`
	Page       int                   `json:"page"`
	Chunks     []storage.ChunkRecord `json:"chunks"`
}

// DocumentTopics is the outline extracted from a document at ingest.
type DocumentTopics struct {
	DocumentID string `json:"document_id"`
	Language   string `json:"language"`
	TotalPages int    `json:"total_pages"`
	domain.Outline
	TotalTopics int    `json:"total_topics"`
	Summary     string `json:"summary"`
}

// DocumentService manages the document lifecycle.
type DocumentService interface {
	Upload(ctx context.Context, req UploadRequest) (*indexer.IngestResult, error)
	List(ctx context.Context) ([]storage.DocumentRecord, error)
	Get(ctx context.Context, documentID string) (*storage.DocumentRecord, error)
	Delete(ctx context.Context, documentID string) (int, error)
	Stats(ctx context.Context, documentID string) (*DocumentStats, error)
	Coverage(ctx context.Context) (*indexer.CoverageStats, error)
	Glossary(ctx context.Context, documentID string, limit int, difficulty domain.Difficulty) ([]domain.RetrievalResult, error)
	Page(ctx context.Context, documentID string, page int) (*PageChunks, error)
	Topics(ctx context.Context, documentID string) (*DocumentTopics, error)
}

type documentService struct {
	pipeline     Pipeline
	documents    storage.DocumentStore
	chunks       storage.ChunkStore
	index        IndexReader
	blobs        blobstore.Store
	indexVersion string
}

// NewDocumentService creates a new DocumentService. indexVersion is reported by Coverage.
func NewDocumentService(
	pipeline Pipeline,
	documents storage.DocumentStore,
	chunks storage.ChunkStore,
	idx IndexReader,
	blobs blobstore.Store,
	indexVersion string,
) DocumentService {
	return &documentService{
		pipeline:     pipeline,
		documents:    documents,
		chunks:       chunks,
		index:        idx,
		blobs:        blobs,
		indexVersion: indexVersion,
	}
}

// Upload reserves the document id, stores the file in the blob store and ingests
// it. When ingest fails the blob is removed before the reservation is released, so
// a retried upload of the same id never loses its file.
func (s *documentService) Upload(ctx context.Context, req UploadRequest) (*indexer.IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Filename) == "" {
		return nil, &ValidationError{Field: "file", Message: "filename is required"}
	}
	if req.Body == nil {
		return nil, &ValidationError{Field: "file", Message: "cannot be empty"}
	}

	documentID := strings.TrimSpace(req.DocumentID)
	if documentID == "" {
		documentID = uuid.New().String()
	}

	if err := s.pipeline.Reserve(ctx, documentID); err != nil {
		return nil, mapDocumentError(err)
	}

	key, err := s.blobs.Save(ctx, documentID, req.Filename, req.Body)
	if err != nil {
		s.pipeline.Release(ctx, documentID)
		return nil, WrapError(err, "failed to store upload")
	}

	result, err := s.pipeline.Ingest(ctx, indexer.IngestRequest{
		DocumentID: documentID,
		Filename:   req.Filename,
		BlobKey:    key,
		OCR:        req.OCR,
		Reserved:   true,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			logger.WarnContext(ctx, "failed to remove blob after ingest error", "blob_key", key, "error", delErr)
		}
		s.pipeline.Release(ctx, documentID)
		return nil, mapDocumentError(err)
	}
	return result, nil
}

func (s *documentService) List(ctx context.Context) ([]storage.DocumentRecord, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, documentID string) (*storage.DocumentRecord, error) {
	doc, err := s.documents.GetByID(ctx, documentID)
	if err != nil {
		return nil, mapDocumentError(err)
	}
	return doc, nil
}

func (s *documentService) Delete(ctx context.Context, documentID string) (int, error) {
	removed, err := s.pipeline.Delete(ctx, documentID)
	if err != nil {
		return 0, mapDocumentError(err)
	}
	return removed, nil
}

func (s *documentService) Stats(ctx context.Context, documentID string) (*DocumentStats, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	idxStats, err := s.index.Stats(ctx, documentID)
	if err != nil {
		return nil, WrapError(err, "failed to read index stats")
	}

	records, err := s.chunks.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, WrapError(err, "failed to list chunks")
	}

	return &DocumentStats{
		Document:   doc,
		Index:      idxStats,
		TokenStats: indexer.RecordTokenStats(records),
	}, nil
}

func (s *documentService) Coverage(ctx context.Context) (*indexer.CoverageStats, error) {
	stats, err := s.pipeline.Coverage(ctx, s.indexVersion)
	if err != nil {
		return nil, WrapError(err, "failed to compute coverage")
	}
	return stats, nil
}

func (s *documentService) Glossary(ctx context.Context, documentID string, limit int, difficulty domain.Difficulty) ([]domain.RetrievalResult, error) {
	if _, err := domain.ParseDifficulty(string(difficulty)); err != nil {
		return nil, &ValidationError{Field: "difficulty", Message: err.Error()}
	}
	if _, err := s.Get(ctx, documentID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = index.DefaultGlossaryLimit
	}

	results, err := s.index.GlossaryChunks(ctx, documentID, limit, difficulty)
	if err != nil {
		return nil, WrapError(err, "failed to list glossary chunks")
	}
	if results == nil {
		results = []domain.RetrievalResult{}
	}
	return results, nil
}

func (s *documentService) Page(ctx context.Context, documentID string, page int) (*PageChunks, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, &ValidationError{Field: "page", Message: "must be at least 1"}
	}
	if page > doc.PageCount {
		return nil, fmt.Errorf("page %d of %d: %w", page, doc.PageCount, ErrNotFound)
	}

	records, err := s.chunks.ListByPage(ctx, documentID, page)
	if err != nil {
		return nil, WrapError(err, "failed to list page chunks")
	}
	return &PageChunks{DocumentID: documentID, Page: page, Chunks: records}, nil
}

func (s *documentService) Topics(ctx context.Context, documentID string) (*DocumentTopics, error) {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}

	outline, err := s.documents.GetOutline(ctx, documentID)
	if err != nil {
		return nil, mapDocumentError(err)
	}

	languageName := doc.LanguageName
	if languageName == "" {
		languageName = "Unknown"
	}
	return &DocumentTopics{
		DocumentID:  documentID,
		Language:    doc.Language,
		TotalPages:  doc.PageCount,
		Outline:     *outline,
		TotalTopics: len(outline.Topics),
		Summary:     fmt.Sprintf("Document covering %d main topics in %s", len(outline.Topics), languageName),
	}, nil
}

// mapDocumentError translates store and extraction errors into service errors,
// keeping the original in the chain.
func mapDocumentError(err error) error {
	var verr *extraction.ValidationError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.As(err, &verr):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
