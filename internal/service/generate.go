package service

//go:generate mockgen -destination=mocks/mock_prompt_gateway.go -package=mocks docquery/internal/service PromptGateway
//go:generate mockgen -destination=mocks/mock_generate_service.go -package=mocks -mock_names=GenerateService=MockGenerateService docquery/internal/service GenerateService

import (
	"context"
	"strings"

	"docquery/internal/contextutil"
	"docquery/internal/gateway"
)

const (
	defaultTemperature = 0.7
	maxTemperature     = 2.0
	maxOutputTokens    = 8192
)

// PromptGateway sends prompts to the generative model.
// This interface is defined from the service layer's perspective (consumer-first).
type PromptGateway interface {
	Generate(ctx context.Context, prompt string, opts gateway.Options) (string, error)
}

// GenerateRequest is a raw prompt. A nil Temperature uses the default.
type GenerateRequest struct {
	Prompt      string
	Temperature *float32
	MaxTokens   int
	Block       bool
}

// GenerateResponse holds the model reply.
type GenerateResponse struct {
	Text string
}

// GenerateService runs raw prompts through the shared gateway.
type GenerateService interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

type generateService struct {
	gateway PromptGateway
}

// NewGenerateService creates a new GenerateService.
func NewGenerateService(gw PromptGateway) GenerateService {
	return &generateService{gateway: gw}
}

// Generate validates the request and forwards it. Gateway errors keep their
// identity so callers can tell rate limiting from generation failures.
func (s *generateService) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Prompt) == "" {
		logger.WarnContext(ctx, "empty prompt in generate request")
		return GenerateResponse{}, &ValidationError{Field: "prompt", Message: "cannot be empty"}
	}

	temperature := float32(defaultTemperature)
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature < 0 || temperature > maxTemperature {
		return GenerateResponse{}, &ValidationError{Field: "temperature", Message: "must be between 0 and 2"}
	}
	if req.MaxTokens < 0 || req.MaxTokens > maxOutputTokens {
		return GenerateResponse{}, &ValidationError{Field: "max_tokens", Message: "must be between 0 and 8192"}
	}

	text, err := s.gateway.Generate(ctx, req.Prompt, gateway.Options{
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
		Block:       req.Block,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate", "error", err)
		return GenerateResponse{}, WrapError(err, "failed to generate")
	}

	logger.InfoContext(ctx, "generate request processed", "prompt_length", len(req.Prompt), "reply_length", len(text))
	return GenerateResponse{Text: text}, nil
}
