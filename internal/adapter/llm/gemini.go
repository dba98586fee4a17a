package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/xiaot623/docchat/internal/domain"
)

// GeminiClient runs a genai chat session per request.
type GeminiClient struct {
	client          *genai.Client
	model           string
	maxOutputTokens int32
}

// GeminiOptions configures NewGeminiClient.
type GeminiOptions struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
	// BaseURL overrides the API endpoint; empty uses the default.
	BaseURL string
}

// NewGeminiClient creates a Gemini generator.
func NewGeminiClient(ctx context.Context, opts GeminiOptions) (*GeminiClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("Google API key is required for the gemini provider")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      opts.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: opts.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	return &GeminiClient{
		client:          client,
		model:           opts.Model,
		maxOutputTokens: int32(opts.MaxOutputTokens),
	}, nil
}

// Generate implements Generator.
func (g *GeminiClient) Generate(ctx context.Context, history []domain.ConversationTurn, instruction string) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == domain.TurnRoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{genai.NewPartFromText(turn.Text)},
		})
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: g.maxOutputTokens,
	}

	chat, err := g.client.Chats.Create(ctx, g.model, config, contents)
	if err != nil {
		return "", fmt.Errorf("create chat session: %w", err)
	}

	start := time.Now()
	resp, err := chat.SendMessage(ctx, genai.Part{Text: instruction})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("no response generated from chat model")
	}

	slog.Debug("gemini response received",
		"model", g.model,
		"history_len", len(history),
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}
