package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8081", "test-key", "test-model")
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8081" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8081", client.BaseURL)
	}
	if client.APIKey != "test-key" {
		t.Errorf("NewClient() APIKey = %v, want test-key", client.APIKey)
	}
	if client.ModelName() != "test-model" {
		t.Errorf("NewClient() ModelName() = %v, want test-model", client.ModelName())
	}
	if client.client == nil {
		t.Error("NewClient() client should not be nil")
	}
}

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name       string
		prompt     string
		params     ChatParams
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantReply  string
		wantErr    bool
	}{
		{
			name:   "successful generation",
			prompt: "Hello",
			params: ChatParams{MaxTokens: 128, Temperature: 0.3},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/chat/completions" {
					t.Errorf("expected /v1/chat/completions, got %s", r.URL.Path)
				}
				if !strings.Contains(r.Header.Get("Authorization"), "Bearer") {
					t.Error("missing Authorization header")
				}

				var req ChatRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Fatalf("failed to decode request: %v", err)
				}
				if req.Model != "test-model" {
					t.Errorf("model = %q, want test-model", req.Model)
				}
				if req.MaxTokens != 128 || req.Temperature != 0.3 {
					t.Errorf("params = %d/%v, want 128/0.3", req.MaxTokens, req.Temperature)
				}
				if len(req.Messages) != 1 || req.Messages[0].Role != "user" || req.Messages[0].Content != "Hello" {
					t.Errorf("messages = %+v, want a single user message", req.Messages)
				}

				resp := ChatResponse{
					ID:     "test-id",
					Object: "chat.completion",
					Choices: []ChatChoice{
						{Message: Message{Role: "assistant", Content: "Hi there!"}, FinishReason: "stop"},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantReply: "Hi there!",
		},
		{
			name:   "no choices returned",
			prompt: "Hello",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(ChatResponse{ID: "test-id", Choices: []ChatChoice{}})
			},
			wantReply: "",
		},
		{
			name:   "model override",
			prompt: "Hello",
			params: ChatParams{Model: "other-model"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				var req ChatRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				if req.Model != "other-model" {
					t.Errorf("model = %q, want other-model", req.Model)
				}
				_ = json.NewEncoder(w).Encode(ChatResponse{Choices: []ChatChoice{{Message: Message{Content: "ok"}}}})
			},
			wantReply: "ok",
		},
		{
			name:   "server error",
			prompt: "Hello",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal error"))
			},
			wantErr: true,
		},
		{
			name:   "invalid JSON response",
			prompt: "Hello",
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			}))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			reply, err := client.Generate(context.Background(), tt.prompt, tt.params)

			if (err != nil) != tt.wantErr {
				t.Errorf("Generate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && reply != tt.wantReply {
				t.Errorf("Generate() reply = %v, want %v", reply, tt.wantReply)
			}
		})
	}
}

func TestClient_ChatWithMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("expected 2 messages, got %d", len(req.Messages))
		}
		if req.Messages[0].Role != "system" {
			t.Errorf("first message role = %q, want system", req.Messages[0].Role)
		}
		_ = json.NewEncoder(w).Encode(ChatResponse{Choices: []ChatChoice{{Message: Message{Content: "answer"}}}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", "test-model")
	reply, err := client.ChatWithMessages(context.Background(), []Message{
		{Role: "system", Content: "Be brief."},
		{Role: "user", Content: "Question?"},
	}, ChatParams{})
	if err != nil {
		t.Fatalf("ChatWithMessages() error = %v", err)
	}
	if reply != "answer" {
		t.Errorf("ChatWithMessages() = %q, want answer", reply)
	}
}

func TestClient_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ChatResponse{})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "test-key", "test-model")
	if _, err := client.Generate(ctx, "Hello", ChatParams{}); err == nil {
		t.Error("Generate() expected error for cancelled context")
	}
}

func TestClient_Ping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		models  []ModelStatus
		wantErr bool
	}{
		{name: "model served", status: http.StatusOK, models: []ModelStatus{{ID: "a"}, {ID: "test-model"}}},
		{name: "empty listing", status: http.StatusOK, models: nil},
		{name: "model missing", status: http.StatusOK, models: []ModelStatus{{ID: "a"}}, wantErr: true},
		{name: "server down", status: http.StatusServiceUnavailable, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/v1/models" {
					t.Errorf("expected /v1/models, got %s", r.URL.Path)
				}
				if r.Method != http.MethodGet {
					t.Errorf("expected GET, got %s", r.Method)
				}
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(ModelsResponse{Data: tt.models})
			}))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model")
			err := client.Ping(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("Ping() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClient_ImplementsBackend(t *testing.T) {
	var _ Backend = NewClient("", "", "")
	var _ Pinger = NewClient("", "", "")
	var _ Backend = (*GeminiBackend)(nil)
	var _ TokenCounter = (*GeminiBackend)(nil)
}

func TestNewGeminiBackend_RequiresKey(t *testing.T) {
	if _, err := NewGeminiBackend(context.Background(), "", "gemini-1.5-flash", "text-embedding-004"); err == nil {
		t.Error("NewGeminiBackend() expected error for empty key")
	}
}
