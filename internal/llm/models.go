package llm

import (
	"context"
	"fmt"
	"net/http"
)

// ModelStatus represents one entry of the /v1/models listing.
type ModelStatus struct {
	ID      string `json:"id"`
	Object  string `json:"object,omitempty"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ModelsResponse represents the response from the /v1/models endpoint.
type ModelsResponse struct {
	Data []ModelStatus `json:"data"`
}

// ListModels returns the models served by the backend.
func (c *Client) ListModels(ctx context.Context) ([]ModelStatus, error) {
	var modelsResp ModelsResponse
	url := fmt.Sprintf("%s/v1/models", c.BaseURL)
	if err := doJSON(ctx, c.client, http.MethodGet, url, c.APIKey, nil, &modelsResp); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return modelsResp.Data, nil
}

// Ping checks that the server answers and serves the configured model. Servers
// that list no models at all are accepted.
func (c *Client) Ping(ctx context.Context) error {
	models, err := c.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		return nil
	}
	for _, m := range models {
		if m.ID == c.Model {
			return nil
		}
	}
	return fmt.Errorf("model %q is not served by %s", c.Model, c.BaseURL)
}
