package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingServer(t *testing.T, data []EmbeddingData) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{Data: data})
	}))
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name         string
		texts        []string
		expectedSize int
		data         []EmbeddingData
		wantErr      bool
		wantCount    int
	}{
		{
			name:         "one vector per text",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			data:         []EmbeddingData{{Embedding: make([]float64, 4)}, {Index: 1, Embedding: make([]float64, 4)}},
			wantCount:    2,
		},
		{
			name:         "size check disabled",
			texts:        []string{"Hello"},
			expectedSize: 0,
			data:         []EmbeddingData{{Embedding: make([]float64, 7)}},
			wantCount:    1,
		},
		{
			name:    "empty input",
			texts:   []string{},
			wantErr: true,
		},
		{
			name:         "fewer vectors than texts",
			texts:        []string{"Hello", "World"},
			expectedSize: 4,
			data:         []EmbeddingData{{Embedding: make([]float64, 4)}},
			wantErr:      true,
		},
		{
			name:         "wrong vector size",
			texts:        []string{"Hello"},
			expectedSize: 4,
			data:         []EmbeddingData{{Embedding: make([]float64, 3)}},
			wantErr:      true,
		},
		{
			name:    "duplicate index",
			texts:   []string{"a", "b"},
			data:    []EmbeddingData{{Index: 1, Embedding: []float64{1}}, {Index: 1, Embedding: []float64{2}}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := embeddingServer(t, tt.data)
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", "test-model", tt.expectedSize)
			embeddings, err := client.EmbedTexts(context.Background(), tt.texts)

			if tt.wantErr {
				if err == nil {
					t.Errorf("EmbedTexts() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("EmbedTexts() unexpected error: %v", err)
			}
			if len(embeddings) != tt.wantCount {
				t.Errorf("EmbedTexts() returned %d embeddings, want %d", len(embeddings), tt.wantCount)
			}
		})
	}
}

func TestEmbeddingsClient_EmbedTexts_ReordersByIndex(t *testing.T) {
	server := embeddingServer(t, []EmbeddingData{
		{Index: 1, Embedding: []float64{2.5}},
		{Index: 0, Embedding: []float64{1.5}},
	})
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "", "test-model", 1)
	embeddings, err := client.EmbedTexts(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if embeddings[0][0] != float32(1.5) || embeddings[1][0] != float32(2.5) {
		t.Errorf("EmbedTexts() = %v, want [[1.5] [2.5]]", embeddings)
	}
}

func TestEmbeddingsClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 4)
	if _, err := client.EmbedTexts(context.Background(), []string{"x"}); err == nil {
		t.Error("EmbedTexts() expected error for 502")
	}
}
