package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiBackend calls the Google Gemini API for generation, token counting and
// embeddings.
type GeminiBackend struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

// NewGeminiBackend creates a Gemini client authenticated with apiKey.
func NewGeminiBackend(ctx context.Context, apiKey, model, embeddingModel string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiBackend{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
	}, nil
}

// Close releases the underlying connection.
func (g *GeminiBackend) Close() error {
	return g.client.Close()
}

// ModelName returns the generation model.
func (g *GeminiBackend) ModelName() string {
	return g.model
}

// Generate returns the concatenated text parts of the first candidate.
func (g *GeminiBackend) Generate(ctx context.Context, prompt string, params ChatParams) (string, error) {
	name := params.Model
	if name == "" {
		name = g.model
	}
	model := g.client.GenerativeModel(name)
	if params.Temperature > 0 {
		model.SetTemperature(params.Temperature)
	}
	if params.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(params.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

// CountTokens asks the model for an exact token count.
func (g *GeminiBackend) CountTokens(ctx context.Context, text string) (int, error) {
	resp, err := g.client.GenerativeModel(g.model).CountTokens(ctx, genai.Text(text))
	if err != nil {
		return 0, fmt.Errorf("gemini count tokens: %w", err)
	}
	return int(resp.TotalTokens), nil
}

// EmbedTexts embeds all texts in a single batch request.
func (g *GeminiBackend) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	batch := g.client.EmbeddingModel(g.embeddingModel).NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	resp, err := g.client.EmbeddingModel(g.embeddingModel).BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}

	result := make([][]float32, len(texts))
	for i, e := range resp.Embeddings {
		result[i] = e.Values
	}
	return result, nil
}
