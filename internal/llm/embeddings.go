package llm

import (
	"context"
	"fmt"
	"net/http"
)

// EmbeddingsClient is a client for an OpenAI-compatible embeddings API.
type EmbeddingsClient struct {
	BaseURL      string
	APIKey       string
	Model        string
	ExpectedSize int // Expected vector size for validation, 0 disables the check
	client       *http.Client
}

// NewEmbeddingsClient creates a new embeddings client.
// expectedSize is the expected vector size (VECTOR_SIZE).
func NewEmbeddingsClient(baseURL, apiKey, model string, expectedSize int) *EmbeddingsClient {
	return &EmbeddingsClient{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		ExpectedSize: expectedSize,
		client:       http.DefaultClient,
	}
}

// EmbeddingsRequest represents the request payload for embeddings API.
type EmbeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingData represents a single embedding in the response.
type EmbeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// EmbeddingsResponse represents the response from the embeddings API.
type EmbeddingsResponse struct {
	Data []EmbeddingData `json:"data"`
}

// EmbedTexts generates one float32 vector per input text, in input order.
func (c *EmbeddingsClient) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("empty input array")
	}

	var embeddingsResp EmbeddingsResponse
	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)
	payload := EmbeddingsRequest{Model: c.Model, Input: texts}
	if err := doJSON(ctx, c.client, http.MethodPost, url, c.APIKey, payload, &embeddingsResp); err != nil {
		return nil, err
	}

	if len(embeddingsResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embeddingsResp.Data))
	}

	// Servers that report indexes may return entries out of order; servers that
	// omit them report zero everywhere.
	indexed := false
	for _, data := range embeddingsResp.Data {
		if data.Index != 0 {
			indexed = true
			break
		}
	}

	result := make([][]float32, len(texts))
	for i, data := range embeddingsResp.Data {
		pos := i
		if indexed {
			pos = data.Index
		}
		if pos < 0 || pos >= len(texts) || result[pos] != nil {
			return nil, fmt.Errorf("invalid embedding index %d", data.Index)
		}
		vec, err := toFloat32(data.Embedding, c.ExpectedSize)
		if err != nil {
			return nil, fmt.Errorf("embedding %d: %w", pos, err)
		}
		result[pos] = vec
	}
	return result, nil
}

func toFloat32(values []float64, expectedSize int) ([]float32, error) {
	if expectedSize > 0 && len(values) != expectedSize {
		return nil, fmt.Errorf("has size %d, expected %d", len(values), expectedSize)
	}
	vec := make([]float32, len(values))
	for j, v := range values {
		vec[j] = float32(v)
	}
	return vec, nil
}
