package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xiaot623/docchat/internal/config"
)

// NewGenerator creates the Generator selected by MODEL_PROVIDER.
func NewGenerator(ctx context.Context, cfg *config.Config) (Generator, error) {
	switch cfg.ModelProvider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, GeminiOptions{
			APIKey:          cfg.GoogleAPIKey,
			Model:           cfg.ChatModel,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.MaxOutputTokens)
	case config.ProviderOllama:
		return NewOllamaClient(cfg.OllamaHost, cfg.ChatModel, cfg.MaxOutputTokens)
	case config.ProviderMock:
		slog.Warn("MODEL_PROVIDER=mock, answers are not generated by a model")
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.ModelProvider)
	}
}
