// Package llm provides clients for the text-generation and embedding
// capabilities consumed by the pipeline.
package llm

import (
	"context"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
)

// TextGenerator is the text-generation capability.
// Use this interface for dependency injection to enable mocking in tests.
type TextGenerator interface {
	// GenerateResponse generates a chat completion for the prompt under the
	// given system message.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GenerateWithHistory generates a chat completion for the prompt with
	// prior conversation messages, oldest first, placed between the system
	// message and the prompt.
	GenerateWithHistory(ctx context.Context, prompt string, systemMessage string, history []models.Message, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Embedder is the embedding capability. Documents and queries are embedded
// identically.
type Embedder interface {
	// CreateEmbedding generates an embedding vector for the input text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// CreateEmbeddings generates embeddings for multiple inputs.
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)
}

// Ensure the concrete clients satisfy the interfaces at compile time.
var (
	_ TextGenerator = (*Client)(nil)
	_ Embedder      = (*Client)(nil)
	_ TextGenerator = (*AnthropicClient)(nil)
)
