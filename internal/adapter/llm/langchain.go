package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/xiaot623/docchat/internal/domain"
)

// LangChainClient generates answers through any langchaingo model.
type LangChainClient struct {
	llm       llms.Model
	maxTokens int
}

// NewLangChainClient wraps an existing langchaingo model.
func NewLangChainClient(model llms.Model, maxTokens int) *LangChainClient {
	return &LangChainClient{llm: model, maxTokens: maxTokens}
}

// NewOpenAIClient creates an OpenAI-backed generator.
func NewOpenAIClient(apiKey, model string, maxTokens int) (*LangChainClient, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key required")
	}
	m, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}
	return NewLangChainClient(m, maxTokens), nil
}

// NewOllamaClient creates an Ollama-backed generator.
func NewOllamaClient(host, model string, maxTokens int) (*LangChainClient, error) {
	m, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama model: %w", err)
	}
	return NewLangChainClient(m, maxTokens), nil
}

// Generate implements Generator.
func (c *LangChainClient) Generate(ctx context.Context, history []domain.ConversationTurn, instruction string) (string, error) {
	messages := make([]llms.MessageContent, 0, len(history)+1)
	for _, turn := range history {
		role := llms.ChatMessageTypeAI
		if turn.Role == domain.TurnRoleUser {
			role = llms.ChatMessageTypeHuman
		}
		messages = append(messages, llms.TextParts(role, turn.Text))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, instruction))

	response, err := c.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(response.Choices) == 0 || response.Choices[0].Content == "" {
		return "", errors.New("no response choices")
	}
	return response.Choices[0].Content, nil
}
