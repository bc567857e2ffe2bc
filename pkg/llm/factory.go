package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sqlbuddy/sqlbuddy-engine/pkg/apperrors"
	"github.com/sqlbuddy/sqlbuddy-engine/pkg/config"
)

// NewFromConfig builds the generation and embedding clients for the
// configured provider. The embedder is always an OpenAI-compatible client;
// only the generator varies by provider.
func NewFromConfig(cfg *config.LLMConfig, logger *zap.Logger) (TextGenerator, Embedder, error) {
	openaiClient, err := NewClient(&ClientConfig{
		Endpoint:       cfg.Endpoint,
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		APIKey:         cfg.APIKey,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create openai client: %w", err)
	}

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return openaiClient, openaiClient, nil
	case config.ProviderAnthropic:
		generator, err := NewAnthropicClient(cfg.APIKey, cfg.Model, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return generator, openaiClient, nil
	default:
		return nil, nil, fmt.Errorf("provider %q: %w", cfg.Provider, apperrors.ErrUnknownProvider)
	}
}
