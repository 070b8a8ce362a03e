// Package app builds the object graph shared by the API server and the CLI from
// a loaded configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"docquery/internal/blobstore"
	"docquery/internal/chunker"
	"docquery/internal/config"
	"docquery/internal/extraction"
	"docquery/internal/gateway"
	"docquery/internal/guard"
	"docquery/internal/index"
	"docquery/internal/indexer"
	"docquery/internal/llm"
	"docquery/internal/rag"
	"docquery/internal/retry"
	"docquery/internal/service"
	"docquery/internal/storage"
	"docquery/internal/topics"
	"docquery/internal/vectorstore"
)

// Embedder produces one vector per text.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type collectionEnsurer interface {
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error
}

// App holds every long-lived component.
type App struct {
	Config *config.Config

	DB        *sql.DB
	Documents *storage.DocumentRepo
	Chunks    *storage.ChunkRepo
	Blobs     blobstore.Store

	Extractor *extraction.Gateway
	Chunker   *chunker.Chunker
	Embedder  Embedder
	Vectors   vectorstore.VectorStore
	Index     *index.Index
	Gateway   *gateway.Gateway
	Pipeline  *indexer.Pipeline
	Engine    *rag.Engine

	DocumentService service.DocumentService
	GenerateService service.GenerateService

	IndexVersion   string
	EmbeddingModel string

	closers []func() error
}

// NewExtractor builds the extraction gateway alone. It needs no network access.
func NewExtractor(cfg *config.Config) *extraction.Gateway {
	var reader extraction.PageReader = extraction.NewNativeReader()
	if cfg.ExtractBackend == "poppler" {
		reader = extraction.NewPopplerReader()
	}
	var recognizer extraction.Recognizer
	if cfg.OCREnabled {
		recognizer = extraction.NewTesseractRecognizer(extraction.ExecRunner{}, cfg.OCRDPI, cfg.OCRLanguage)
	}
	return extraction.NewGateway(reader, recognizer, extraction.Options{
		MaxFileSizeBytes: cfg.MaxFileSizeBytes,
		MaxPages:         cfg.MaxPages,
	})
}

// RetryPolicy returns the configured retry policy for generative and index calls.
func RetryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Multiplier: 1}
}

// New opens the database, vector store, blob store and generative backend and wires
// the services on top of them. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = db
	a.closers = append(a.closers, db.Close)
	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Database initialized", "path", cfg.DBPath)

	a.Documents = storage.NewDocumentRepo(db)
	a.Chunks = storage.NewChunkRepo(db)

	a.Blobs, err = blobstore.New(ctx, blobstore.Config{
		Type:         blobstore.Type(cfg.StorageType),
		LocalPath:    cfg.StorageLocalPath,
		S3Bucket:     cfg.S3Bucket,
		S3Region:     cfg.S3Region,
		AWSAccessKey: cfg.AWSAccessKey,
		AWSSecretKey: cfg.AWSSecretKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create blob store: %w", err)
	}

	backend, err := a.initBackend(ctx)
	if err != nil {
		return err
	}

	if err := a.initVectorStore(ctx); err != nil {
		return err
	}

	policy := RetryPolicy(cfg)
	a.Index = index.New(a.Vectors, a.Embedder, index.Options{
		Collection:  cfg.QdrantCollection,
		MaxDistance: cfg.IndexMaxDistance,
		Retry:       policy,
	})

	a.Gateway = gateway.New(backend, gateway.Config{
		MaxRequests:  cfg.RateLimitMaxRequests,
		Window:       cfg.RateLimitWindow,
		MaxWait:      cfg.RateLimitMaxWait,
		PollInterval: cfg.RateLimitPollInterval,
	})

	a.Extractor = NewExtractor(cfg)
	a.Chunker, err = chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	a.Pipeline = indexer.NewPipeline(a.Extractor, a.Chunker, a.Index, a.Documents, a.Chunks, a.Blobs)
	if cfg.TopicsEnabled {
		a.Pipeline.WithOutliner(topics.New(a.Gateway, policy))
	}

	opts := rag.Options{
		Documents: a.Documents,
		Scoring: rag.ScoringConfig{
			SimilarityWeight: cfg.ConfidenceSimilarityWeight,
			LengthSaturation: cfg.ConfidenceLengthSaturation,
		},
		Retry: policy,
	}
	if cfg.GuardEnabled {
		opts.Guard = guard.New(a.Gateway, policy)
	}
	a.Engine = rag.NewEngine(a.Index, a.Gateway, opts)

	a.IndexVersion = indexer.IndexVersion(a.EmbeddingModel, cfg.ChunkSize, cfg.ChunkOverlap)
	a.DocumentService = service.NewDocumentService(a.Pipeline, a.Documents, a.Chunks, a.Index, a.Blobs, a.IndexVersion)
	a.GenerateService = service.NewGenerateService(a.Gateway)

	return nil
}

// initBackend creates the generative backend and the embedder for the configured provider.
func (a *App) initBackend(ctx context.Context) (llm.Backend, error) {
	cfg := a.Config
	switch cfg.LLMBackend {
	case "gemini":
		gemini, err := llm.NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiEmbeddingModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gemini.Close)
		a.Embedder = gemini
		a.EmbeddingModel = cfg.GeminiEmbeddingModel
		return gemini, nil
	case "openai":
		a.Embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModelName, cfg.VectorSize)
		a.EmbeddingModel = cfg.EmbeddingModelName
		return llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName), nil
	}
	return nil, fmt.Errorf("unknown LLM backend %q", cfg.LLMBackend)
}

func (a *App) initVectorStore(ctx context.Context) error {
	cfg := a.Config
	switch cfg.VectorBackend {
	case "qdrant":
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return fmt.Errorf("failed to create Qdrant client: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.Vectors = store
	case "pgvector":
		store, err := vectorstore.NewPgvectorStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.Vectors = store
	case "memory":
		slog.Warn("Using in-memory vector store; the index is lost on exit")
		a.Vectors = vectorstore.NewMemoryStore()
	default:
		return fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}

	if ensurer, ok := a.Vectors.(collectionEnsurer); ok {
		if err := ensurer.EnsureCollection(ctx, cfg.QdrantCollection, cfg.VectorSize); err != nil {
			return fmt.Errorf("failed to ensure vector collection: %w", err)
		}
		slog.Debug("Vector collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.VectorSize)
	}
	return nil
}

// VerifyEmbedder embeds a sample text and checks the vector size against the
// configured collection size.
func (a *App) VerifyEmbedder(ctx context.Context) error {
	vectors, err := a.Embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vectors) == 0 {
		return errors.New("embedding client returned no vectors")
	}
	if len(vectors[0]) != a.Config.VectorSize {
		return fmt.Errorf("embedding vector size mismatch: expected %d, got %d", a.Config.VectorSize, len(vectors[0]))
	}
	return nil
}

// Close releases every opened resource in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
