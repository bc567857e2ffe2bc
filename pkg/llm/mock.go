package llm

import (
	"context"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/models"
)

// MockClient is a configurable mock for testing generation and embedding
// behavior. Set the function fields to control behavior in tests.
type MockClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns empty string and nil error.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GenerateWithHistoryFunc is called when GenerateWithHistory is invoked.
	// If nil, the call falls through to GenerateResponse.
	GenerateWithHistoryFunc func(ctx context.Context, prompt string, systemMessage string, history []models.Message, temperature float64) (string, error)

	// CreateEmbeddingFunc is called when CreateEmbedding is invoked.
	// If nil, returns nil slice and nil error.
	CreateEmbeddingFunc func(ctx context.Context, input string) ([]float32, error)

	// CreateEmbeddingsFunc is called when CreateEmbeddings is invoked.
	// If nil, embeds each input via CreateEmbeddingFunc when set.
	CreateEmbeddingsFunc func(ctx context.Context, inputs []string) ([][]float32, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification
	GenerateResponseCalls    int
	GenerateWithHistoryCalls int
	CreateEmbeddingCalls     int
	CreateEmbeddingsCalls    int
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Model: "mock-model",
	}
}

// GenerateResponse implements TextGenerator.
func (m *MockClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	m.GenerateResponseCalls++
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

// GenerateWithHistory implements TextGenerator.
func (m *MockClient) GenerateWithHistory(ctx context.Context, prompt string, systemMessage string, history []models.Message, temperature float64) (string, error) {
	m.GenerateWithHistoryCalls++
	if m.GenerateWithHistoryFunc != nil {
		return m.GenerateWithHistoryFunc(ctx, prompt, systemMessage, history, temperature)
	}
	return m.GenerateResponse(ctx, prompt, systemMessage, temperature)
}

// CreateEmbedding implements Embedder.
func (m *MockClient) CreateEmbedding(ctx context.Context, input string) ([]float32, error) {
	m.CreateEmbeddingCalls++
	if m.CreateEmbeddingFunc != nil {
		return m.CreateEmbeddingFunc(ctx, input)
	}
	return nil, nil
}

// CreateEmbeddings implements Embedder.
func (m *MockClient) CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error) {
	m.CreateEmbeddingsCalls++
	if m.CreateEmbeddingsFunc != nil {
		return m.CreateEmbeddingsFunc(ctx, inputs)
	}
	if m.CreateEmbeddingFunc != nil {
		embeddings := make([][]float32, len(inputs))
		for i, input := range inputs {
			vec, err := m.CreateEmbeddingFunc(ctx, input)
			if err != nil {
				return nil, err
			}
			embeddings[i] = vec
		}
		return embeddings, nil
	}
	return nil, nil
}

// GetModel implements TextGenerator.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Reset clears call tracking counters.
func (m *MockClient) Reset() {
	m.GenerateResponseCalls = 0
	m.GenerateWithHistoryCalls = 0
	m.CreateEmbeddingCalls = 0
	m.CreateEmbeddingsCalls = 0
}

// Ensure MockClient implements the capability interfaces at compile time.
var (
	_ TextGenerator = (*MockClient)(nil)
	_ Embedder      = (*MockClient)(nil)
)
