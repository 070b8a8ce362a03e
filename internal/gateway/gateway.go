// Package gateway is the single shared client for generative model calls. It
// throttles calls with a sliding window and isolates backend calls from caller
// cancellation.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"docquery/internal/contextutil"
	"docquery/internal/llm"
	"docquery/internal/retry"
)

var (
	// ErrRateLimitExceeded is returned by non-blocking calls when the window is full.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrRateLimitTimeout is returned by blocking calls that waited MaxWait without a free slot.
	ErrRateLimitTimeout = errors.New("timed out waiting for rate limit")
	// ErrGeneration wraps backend failures.
	ErrGeneration = errors.New("generation failed")
	// ErrNoBackend is returned by Health when no backend is configured.
	ErrNoBackend = errors.New("no generative backend configured")
)

// Options control a single Generate call.
type Options struct {
	Temperature float32
	MaxTokens   int
	// Block waits for a free slot instead of failing immediately.
	Block bool
}

// Config holds the limiter settings.
type Config struct {
	MaxRequests  int
	Window       time.Duration
	MaxWait      time.Duration
	PollInterval time.Duration
}

// QuotaStatus is the limiter state plus the model it guards.
type QuotaStatus struct {
	Model string `json:"model"`
	WindowStatus
	WindowSeconds int `json:"window_seconds"`
}

// Gateway wraps a backend with a rate window. One Gateway is shared by every
// consumer in the process.
type Gateway struct {
	backend      llm.Backend
	window       *RateWindow
	maxWait      time.Duration
	pollInterval time.Duration
}

// New creates a Gateway. backend may be nil, in which case Generate returns empty text.
func New(backend llm.Backend, cfg Config) *Gateway {
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = DefaultMaxWait
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Gateway{
		backend:      backend,
		window:       NewRateWindow(cfg.MaxRequests, cfg.Window),
		maxWait:      cfg.MaxWait,
		pollInterval: cfg.PollInterval,
	}
}

// Generate sends prompt to the backend once a rate slot is available. Rate limit
// errors are marked permanent so retry wrappers give up on them.
func (g *Gateway) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if g.backend == nil {
		logger.ErrorContext(ctx, "generate called without a backend")
		return "", nil
	}

	if err := g.acquire(ctx, opts.Block); err != nil {
		logger.WarnContext(ctx, "rate limit reached", "block", opts.Block, "error", err)
		return "", err
	}

	start := time.Now()
	// In-flight calls finish even if the caller goes away.
	text, err := g.backend.Generate(context.WithoutCancel(ctx), prompt, llm.ChatParams{
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		logger.ErrorContext(ctx, "generation failed", "model", g.backend.ModelName(), "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	logger.DebugContext(ctx, "generation completed",
		"model", g.backend.ModelName(),
		"prompt_length", len(prompt),
		"response_length", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (g *Gateway) acquire(ctx context.Context, block bool) error {
	if g.window.CheckLimit() {
		return nil
	}
	if !block {
		return retry.Permanent(ErrRateLimitExceeded)
	}

	deadline := time.Now().Add(g.maxWait)
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return retry.Permanent(ctx.Err())
		case <-ticker.C:
		}
		if g.window.CheckLimit() {
			return nil
		}
		if !time.Now().Before(deadline) {
			return retry.Permanent(fmt.Errorf("%w after %s", ErrRateLimitTimeout, g.maxWait))
		}
	}
}

// CountTokens returns the backend's token count, or runes/4 when the backend cannot
// count. It never fails.
func (g *Gateway) CountTokens(ctx context.Context, text string) int {
	if counter, ok := g.backend.(llm.TokenCounter); ok {
		n, err := counter.CountTokens(context.WithoutCancel(ctx), text)
		if err == nil {
			return n
		}
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "token count failed, estimating", "error", err)
	}
	return EstimateTokens(text)
}

// EstimateTokens approximates a token count as one token per four characters.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}

// QuotaStatus reports the current window usage.
func (g *Gateway) QuotaStatus() QuotaStatus {
	status := g.window.Status()
	model := ""
	if g.backend != nil {
		model = g.backend.ModelName()
	}
	return QuotaStatus{
		Model:         model,
		WindowStatus:  status,
		WindowSeconds: int(status.Window / time.Second),
	}
}

// Health checks that the backend answers. Backends without a ping endpoint are
// checked with a tiny non-blocking generation, which consumes a rate slot. A full
// window is not a backend failure: the check is skipped and the gateway reported healthy.
func (g *Gateway) Health(ctx context.Context) error {
	if g.backend == nil {
		return ErrNoBackend
	}
	if pinger, ok := g.backend.(llm.Pinger); ok {
		return pinger.Ping(ctx)
	}
	if g.window.Status().Remaining == 0 {
		return nil
	}
	_, err := g.Generate(ctx, "ping", Options{MaxTokens: 5})
	if errors.Is(err, ErrRateLimitExceeded) {
		return nil
	}
	return err
}
