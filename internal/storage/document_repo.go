package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks docquery/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docquery/internal/domain"
)

// ReservationTTL is how long an unfinished reservation blocks its document id. Older
// reservations are assumed to belong to a process that died mid-ingest.
const ReservationTTL = 30 * time.Minute

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a document id is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// Reserve claims a document id for an ingest in progress. Returns ErrDuplicate if
	// the id belongs to a stored document or to another live reservation.
	Reserve(ctx context.Context, id string) error
	// Release drops a reservation. Releasing an id that is not reserved is a no-op.
	Release(ctx context.Context, id string) error
	// InsertWithChunks inserts a document and all of its chunks in one transaction
	// and clears its reservation. Returns ErrDuplicate if the document id exists.
	InsertWithChunks(ctx context.Context, doc *DocumentRecord, chunks []ChunkRecord) error
	// GetByID gets a document by id. Returns nil and ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	// GetOutline returns the topics and vocabulary extracted for a document. A
	// document stored without an outline yields an empty one. Returns ErrNotFound if
	// the document does not exist.
	GetOutline(ctx context.Context, id string) (*domain.Outline, error)
	// List returns all documents, newest first.
	List(ctx context.Context) ([]DocumentRecord, error)
	// Delete removes a document and its chunks. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db, now: time.Now}
}

// Reserve claims id with a single conditional insert, so concurrent callers in this
// or another process sharing the database cannot both succeed.
func (r *DocumentRepo) Reserve(ctx context.Context, id string) error {
	now := r.now()
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM reservations WHERE document_id = ? AND reserved_at < ?",
		id, now.Add(-ReservationTTL).Unix(),
	); err != nil {
		return fmt.Errorf("failed to expire reservation: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reservations (document_id, reserved_at)
		 SELECT ?, ? WHERE NOT EXISTS (SELECT 1 FROM documents WHERE id = ?)`,
		id, now.Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to reserve document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

// Release drops the reservation on id.
func (r *DocumentRepo) Release(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM reservations WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("failed to release reservation: %w", err)
	}
	return nil
}

const documentColumns = `id, filename, blob_key, page_count, size_bytes, language, language_name,
	language_confidence, title, author, keywords, chunk_count, created_at`

// InsertWithChunks inserts a document and its chunks atomically. ChunkCount is set
// from len(chunks).
func (r *DocumentRepo) InsertWithChunks(ctx context.Context, doc *DocumentRecord, chunks []ChunkRecord) (err error) {
	keywords := doc.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	rawKeywords, err := json.Marshal(keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", doc.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing document: %w", err)
	}
	if exists > 0 {
		return ErrDuplicate
	}

	doc.ChunkCount = len(chunks)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, filename, blob_key, page_count, size_bytes, language, language_name,
			language_confidence, title, author, keywords, chunk_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		doc.ID, doc.Filename, doc.BlobKey, doc.PageCount, doc.SizeBytes, doc.Language, doc.LanguageName,
		doc.LanguageConfidence, doc.Title, doc.Author, string(rawKeywords), doc.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, document_id, seq, page, start_char, end_char, word_count, difficulty, is_glossary, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, c := range chunks {
		if c.DocumentID != doc.ID {
			return fmt.Errorf("chunk %s belongs to document %s, not %s", c.ID, c.DocumentID, doc.ID)
		}
		_, err = stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Seq, c.Page, c.StartChar, c.EndChar,
			c.WordCount, string(c.Difficulty), c.IsGlossary, c.Text)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}

	if doc.Outline != nil {
		var rawOutline []byte
		if rawOutline, err = json.Marshal(doc.Outline); err != nil {
			return fmt.Errorf("failed to encode outline: %w", err)
		}
		_, err = tx.ExecContext(ctx, "INSERT INTO document_topics (document_id, outline) VALUES (?, ?)", doc.ID, string(rawOutline))
		if err != nil {
			return fmt.Errorf("failed to insert outline: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM reservations WHERE document_id = ?", doc.ID); err != nil {
		return fmt.Errorf("failed to clear reservation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentRecord, error) {
	var doc DocumentRecord
	var rawKeywords, createdAt string
	err := row.Scan(&doc.ID, &doc.Filename, &doc.BlobKey, &doc.PageCount, &doc.SizeBytes, &doc.Language,
		&doc.LanguageName, &doc.LanguageConfidence, &doc.Title, &doc.Author, &rawKeywords, &doc.ChunkCount, &createdAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(rawKeywords), &doc.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords: %w", err)
	}
	if doc.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}
	return &doc, nil
}

// GetByID gets a document by id. Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// GetOutline returns the stored outline of a document.
func (r *DocumentRepo) GetOutline(ctx context.Context, id string) (*domain.Outline, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT t.outline FROM documents d
		 LEFT JOIN document_topics t ON t.document_id = d.id
		 WHERE d.id = ?`, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query outline: %w", err)
	}

	outline := domain.EmptyOutline()
	if !raw.Valid {
		return &outline, nil
	}
	if err := json.Unmarshal([]byte(raw.String), &outline); err != nil {
		return nil, fmt.Errorf("failed to decode outline: %w", err)
	}
	return &outline, nil
}

// List returns all documents ordered by creation time, newest first.
func (r *DocumentRepo) List(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY created_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []DocumentRecord{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// Delete removes a document. Chunks are removed in the same transaction.
func (r *DocumentRepo) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM document_topics WHERE document_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete outline: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
