package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"docquery/internal/contextutil"
)

// PgvectorStore implements VectorStore on PostgreSQL with the pgvector extension.
// Each collection is a table with an id, an embedding and a JSONB payload.
type PgvectorStore struct {
	pool *pgxpool.Pool
}

// NewPgvectorStore connects to PostgreSQL.
func NewPgvectorStore(ctx context.Context, dsn string) (*PgvectorStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return &PgvectorStore{pool: pool}, nil
}

// NewPgvectorStoreWithPool wraps an existing pool.
func NewPgvectorStoreWithPool(pool *pgxpool.Pool) *PgvectorStore {
	return &PgvectorStore{pool: pool}
}

// Close closes the connection pool.
func (s *PgvectorStore) Close() error {
	s.pool.Close()
	return nil
}

// EnsureCollection creates the vector extension, the collection table and its
// document index if they do not exist.
func (s *PgvectorStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	table := pgx.Identifier{collection}.Sanitize()
	index := pgx.Identifier{collection + "_document_idx"}.Sanitize()
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			embedding vector(%d) NOT NULL,
			meta JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, table, vectorSize),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s ((meta->>'%s'))`, index, table, KeyDocumentID),
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", collection, err)
		}
	}

	logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

// Upsert writes all points in a single transaction.
func (s *PgvectorStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := fmt.Sprintf(`
		INSERT INTO %s (id, embedding, meta)
		VALUES ($1, $2::vector, $3::jsonb)
		ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, meta = EXCLUDED.meta`,
		pgx.Identifier{collection}.Sanitize())

	for _, point := range points {
		meta, err := json.Marshal(point.Meta)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if _, err := tx.Exec(ctx, query, point.ID, pgvector.NewVector(point.Vec), string(meta)); err != nil {
			logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
			return fmt.Errorf("failed to upsert point %s: %w", point.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.InfoContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search ranks points by cosine distance (the <=> operator), then sequence number.
func (s *PgvectorStore) Search(ctx context.Context, collection string, query []float32, k int, filter Filter) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	args := []any{pgvector.NewVector(query)}
	where, args := whereClause(filter, args)
	args = append(args, k)

	sql := fmt.Sprintf(`
		SELECT id, meta, embedding <=> $1::vector AS distance
		FROM %s
		%s
		ORDER BY distance, (meta->>'%s')::int, id
		LIMIT $%d`, pgx.Identifier{collection}.Sanitize(), where, KeySeq, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search points: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			id       string
			raw      []byte
			distance float64
		)
		if err := rows.Scan(&id, &raw, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		meta, err := decodeMeta(raw)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{PointID: id, Distance: distance, Meta: meta})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating search results: %w", err)
	}
	return results, nil
}

// Scroll lists points matching filter by sequence number, then id.
func (s *PgvectorStore) Scroll(ctx context.Context, collection string, filter Filter, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	where, args := whereClause(filter, nil)
	args = append(args, limit)
	sql := fmt.Sprintf(`SELECT id, meta FROM %s %s ORDER BY (meta->>'%s')::int, id LIMIT $%d`,
		pgx.Identifier{collection}.Sanitize(), where, KeySeq, len(args))

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scroll points: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		meta, err := decodeMeta(raw)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{PointID: id, Meta: meta})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating points: %w", err)
	}
	return results, nil
}

// Count returns the number of points matching filter.
func (s *PgvectorStore) Count(ctx context.Context, collection string, filter Filter) (int, error) {
	where, args := whereClause(filter, nil)
	sql := fmt.Sprintf(`SELECT count(*) FROM %s %s`, pgx.Identifier{collection}.Sanitize(), where)

	var count int
	if err := s.pool.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

// Delete removes points by their IDs.
func (s *PgvectorStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	sql := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, pgx.Identifier{collection}.Sanitize())
	if _, err := s.pool.Exec(ctx, sql, ids); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// DeleteByFilter removes every point matching filter. An empty filter is rejected.
func (s *PgvectorStore) DeleteByFilter(ctx context.Context, collection string, filter Filter) error {
	if filter.IsEmpty() {
		return fmt.Errorf("refusing to delete with an empty filter")
	}
	where, args := whereClause(filter, nil)
	sql := fmt.Sprintf(`DELETE FROM %s %s`, pgx.Identifier{collection}.Sanitize(), where)
	if _, err := s.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Health pings the database.
func (s *PgvectorStore) Health(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres health check failed: %w", err)
	}
	return nil
}

// whereClause renders filter as a WHERE clause over the JSONB payload. Placeholders
// continue after the existing args.
func whereClause(f Filter, args []any) (string, []any) {
	var conds []string
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DocumentID != "" {
		add(`meta->>'`+KeyDocumentID+`' = $%d`, f.DocumentID)
	}
	if f.Difficulty != "" {
		add(`meta->>'`+KeyDifficulty+`' = $%d`, f.Difficulty)
	}
	if f.GlossaryOnly {
		conds = append(conds, `(meta->>'`+KeyGlossary+`')::boolean`)
	}
	if f.Page > 0 {
		add(`(meta->>'`+KeyPage+`')::int = $%d`, f.Page)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func decodeMeta(raw []byte) (map[string]any, error) {
	meta := make(map[string]any)
	if len(raw) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	return meta, nil
}
