package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docquery/internal/app"
	"docquery/internal/config"
	"docquery/internal/http"
	"docquery/internal/inbox"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API indexes PDF documents and answers questions about them with retrieval-augmented generation.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: DocQuery API
//   description: |
//     Upload PDF documents, inspect their extracted chunks, and ask questions that are
//     answered from the document's own content with a confidence score and cited sources.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
//   - multipart/form-data
// produces:
//   - application/json

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()
	slog.Info("Components initialized",
		"vector_backend", cfg.VectorBackend,
		"llm_backend", cfg.LLMBackend,
		"storage", cfg.StorageType,
		"index_version", a.IndexVersion,
	)

	// Validate embedding client vector size (fail-fast)
	if err := a.VerifyEmbedder(ctx); err != nil {
		log.Fatalf("%v", err)
	}
	slog.Info("Embedding client validated", "vector_size", cfg.VectorSize)

	router := http.NewRouter(&http.Deps{
		Documents:       a.DocumentService,
		Generate:        a.GenerateService,
		Answerer:        a.Engine,
		Quota:           a.Gateway,
		IndexHealth:     a.Index,
		GeneratorHealth: a.Gateway,
		MaxUploadBytes:  cfg.MaxFileSizeBytes,
		DefaultOCR:      cfg.OCREnabled,
		RateLimitRPS:    cfg.APIRateLimitRPS,
		RateLimitBurst:  cfg.APIRateLimitBurst,
	})

	var watcher *inbox.Watcher
	if cfg.InboxDir != "" {
		watcher = inbox.NewWatcher(cfg.InboxDir, inbox.NewIngestFunc(a.Pipeline, cfg.OCREnabled), inbox.DefaultDebounce)
		go func() {
			slog.Info("Processing existing inbox files", "dir", cfg.InboxDir)
			ingested, failed, err := watcher.ProcessExisting(ctx)
			if err != nil {
				slog.Error("Inbox scan failed", "error", err)
			} else {
				slog.Info("Inbox scan completed", "ingested", ingested, "failed", failed)
			}
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Inbox watcher stopped", "error", err)
			}
		}()
	}

	addr := ":" + cfg.APIPort
	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", addr)
		slog.Debug("LLM configuration", "backend", cfg.LLMBackend, "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Fatalf("API server failed to start: %v", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}
}
