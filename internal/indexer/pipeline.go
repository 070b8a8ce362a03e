// Package indexer runs documents through validation, extraction, chunking and
// indexing, and records the result in the document store.
package indexer

//go:generate mockgen -destination=mocks/mock_indexer.go -package=mocks docquery/internal/indexer Extractor,Splitter,ChunkIndex

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"docquery/internal/blobstore"
	"docquery/internal/contextutil"
	"docquery/internal/domain"
	"docquery/internal/extraction"
	"docquery/internal/storage"
	"docquery/internal/textutil"
)

// topicKeywordCount is the number of frequent terms stored per document for the guard.
const topicKeywordCount = 20

// Extractor validates documents and extracts their pages.
type Extractor interface {
	Validate(ctx context.Context, path string) (*extraction.ValidationResult, error)
	Extract(ctx context.Context, path string, allowOCR bool) (*domain.Document, error)
}

// Splitter turns pages into chunks.
type Splitter interface {
	Chunk(documentID string, pages []domain.Page) []domain.Chunk
}

// ChunkIndex is the write side of the vector index.
type ChunkIndex interface {
	Add(ctx context.Context, documentID string, chunks []domain.Chunk) error
	DeleteByDocument(ctx context.Context, documentID string) (int, error)
}

// Outliner extracts topics and vocabulary from a document's text.
type Outliner interface {
	Extract(ctx context.Context, text, language string) domain.Outline
}

// IngestRequest describes one document to ingest. Path is used when set; otherwise
// the file is read from the blob store by BlobKey.
type IngestRequest struct {
	DocumentID string
	Path       string
	Filename   string
	BlobKey    string
	OCR        bool
	// Reserved means the caller already holds the reservation on DocumentID and
	// releases it itself.
	Reserved bool
}

// IngestResult summarises a successful ingest.
type IngestResult struct {
	Document   *storage.DocumentRecord `json:"document"`
	Chunks     int                     `json:"chunks"`
	OCRPages   int                     `json:"ocr_pages"`
	Warnings   []string                `json:"warnings,omitempty"`
	TokenStats ChunkTokenStats         `json:"chunk_token_stats"`
	Duration   time.Duration           `json:"-"`
	DurationMS int64                   `json:"duration_ms"`
}

// Pipeline orchestrates ingest and deletion across the extractor, the vector index,
// the document store and the blob store.
type Pipeline struct {
	extractor Extractor
	splitter  Splitter
	index     ChunkIndex
	documents storage.DocumentStore
	chunks    storage.ChunkStore
	blobs     blobstore.Store
	outliner  Outliner
}

// NewPipeline creates a new indexing pipeline. blobs may be nil when documents are
// only ingested from local paths.
func NewPipeline(
	extractor Extractor,
	splitter Splitter,
	index ChunkIndex,
	documents storage.DocumentStore,
	chunks storage.ChunkStore,
	blobs blobstore.Store,
) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		splitter:  splitter,
		index:     index,
		documents: documents,
		chunks:    chunks,
		blobs:     blobs,
	}
}

// WithOutliner enables topic and vocabulary extraction during ingest.
func (p *Pipeline) WithOutliner(o Outliner) *Pipeline {
	p.outliner = o
	return p
}

// Reserve claims documentID until it is recorded or released. Returns
// storage.ErrDuplicate if the id is taken.
func (p *Pipeline) Reserve(ctx context.Context, documentID string) error {
	if err := p.documents.Reserve(ctx, documentID); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("document %s: %w", documentID, err)
		}
		return fmt.Errorf("failed to reserve document: %w", err)
	}
	return nil
}

// Release drops a reservation taken with Reserve. Failures are logged; the
// reservation then expires after storage.ReservationTTL.
func (p *Pipeline) Release(ctx context.Context, documentID string) {
	if err := p.documents.Release(ctx, documentID); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to release reservation",
			"document_id", documentID,
			"error", err,
		)
	}
}

// Ingest validates, extracts, chunks and indexes one document, then records it.
// The document id is reserved first, so a concurrent ingest of the same id fails
// with storage.ErrDuplicate before it indexes anything. If the record cannot be
// written the freshly indexed chunks are removed again.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	documentID := strings.TrimSpace(req.DocumentID)
	if req.Reserved {
		if documentID == "" {
			return nil, errors.New("a reserved ingest needs a document id")
		}
		return p.ingest(ctx, documentID, req)
	}

	if documentID == "" {
		documentID = uuid.New().String()
	}
	if err := p.Reserve(ctx, documentID); err != nil {
		return nil, err
	}
	result, err := p.ingest(ctx, documentID, req)
	if err != nil {
		p.Release(ctx, documentID)
		return nil, err
	}
	return result, nil
}

func (p *Pipeline) ingest(ctx context.Context, documentID string, req IngestRequest) (*IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	path := req.Path
	if path == "" {
		if req.BlobKey == "" || p.blobs == nil {
			return nil, errors.New("ingest needs a path or a blob key")
		}
		localPath, cleanup, err := p.blobs.LocalPath(ctx, req.BlobKey)
		defer cleanup()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch blob: %w", err)
		}
		path = localPath
	}

	validation, err := p.extractor.Validate(ctx, path)
	if err != nil {
		return nil, err
	}

	doc, err := p.extractor.Extract(ctx, path, req.OCR)
	if err != nil {
		return nil, err
	}
	doc.ID = documentID
	if req.Filename != "" {
		doc.Filename = filepath.Base(req.Filename)
	}

	warnings := append([]string{}, validation.Warnings...)
	ocrPages := 0
	for _, page := range doc.Pages {
		if page.OCR {
			ocrPages++
		}
	}

	chunks := p.splitter.Chunk(documentID, doc.Pages)
	if len(chunks) == 0 {
		warnings = append(warnings, "no text could be extracted; the document has no chunks")
		logger.WarnContext(ctx, "document produced no chunks", "document_id", documentID)
	}

	var outline *domain.Outline
	if p.outliner != nil && strings.TrimSpace(doc.FullText) != "" {
		o := p.outliner.Extract(ctx, doc.FullText, doc.Language)
		outline = &o
	}

	if err := p.index.Add(ctx, documentID, chunks); err != nil {
		return nil, fmt.Errorf("failed to index chunks: %w", err)
	}

	record := newDocumentRecord(doc, req.BlobKey)
	record.Outline = outline
	chunkRecords := make([]storage.ChunkRecord, len(chunks))
	for i, c := range chunks {
		chunkRecords[i] = storage.NewChunkRecord(c)
	}

	if err := p.documents.InsertWithChunks(ctx, record, chunkRecords); err != nil {
		if _, delErr := p.index.DeleteByDocument(ctx, documentID); delErr != nil {
			logger.ErrorContext(ctx, "failed to remove indexed chunks after store error",
				"document_id", documentID,
				"error", delErr,
			)
		}
		return nil, fmt.Errorf("failed to record document: %w", err)
	}

	duration := time.Since(start)
	result := &IngestResult{
		Document:   record,
		Chunks:     len(chunks),
		OCRPages:   ocrPages,
		Warnings:   warnings,
		TokenStats: TokenStats(chunks),
		Duration:   duration,
		DurationMS: duration.Milliseconds(),
	}

	logger.InfoContext(ctx, "document ingested",
		"document_id", documentID,
		"filename", record.Filename,
		"pages", record.PageCount,
		"chunks", len(chunks),
		"language", record.Language,
		"duration_ms", result.DurationMS,
	)
	return result, nil
}

// Delete removes a document from the index, the document store and the blob store,
// in that order, and returns the number of removed index entries. A blob that cannot
// be removed is logged and does not fail the delete.
func (p *Pipeline) Delete(ctx context.Context, documentID string) (int, error) {
	logger := contextutil.LoggerFromContext(ctx)

	record, err := p.documents.GetByID(ctx, documentID)
	if err != nil {
		return 0, err
	}

	removed, err := p.index.DeleteByDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete indexed chunks: %w", err)
	}

	if err := p.documents.Delete(ctx, documentID); err != nil {
		return removed, err
	}

	if record.BlobKey != "" && p.blobs != nil {
		if err := p.blobs.Delete(ctx, record.BlobKey); err != nil {
			logger.WarnContext(ctx, "failed to delete document blob",
				"document_id", documentID,
				"blob_key", record.BlobKey,
				"error", err,
			)
		}
	}

	logger.InfoContext(ctx, "document deleted", "document_id", documentID, "chunks", removed)
	return removed, nil
}

func newDocumentRecord(doc *domain.Document, blobKey string) *storage.DocumentRecord {
	title := strings.TrimSpace(doc.Metadata.Title)
	if title == "" {
		title = strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
	}
	return &storage.DocumentRecord{
		ID:                 doc.ID,
		Filename:           doc.Filename,
		BlobKey:            blobKey,
		PageCount:          doc.PageCount(),
		SizeBytes:          doc.SizeBytes,
		Language:           doc.Language,
		LanguageName:       doc.LanguageName,
		LanguageConfidence: doc.LanguageConfidence,
		Title:              title,
		Author:             doc.Metadata.Author,
		Keywords:           textutil.TopKeywords(doc.FullText, topicKeywordCount),
		CreatedAt:          time.Now().UTC(),
	}
}
