package llm

import "context"

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature controls the randomness of the output.
	// If 0, the backend default is used.
	Temperature float32
}

// Backend generates text from a prompt. An empty string with a nil error means the
// model produced no text.
type Backend interface {
	Generate(ctx context.Context, prompt string, params ChatParams) (string, error)
	ModelName() string
}

// TokenCounter is implemented by backends that can count tokens exactly.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Pinger is implemented by backends with a cheap health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
