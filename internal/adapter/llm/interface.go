// Package llm provides an abstraction for generative model clients.
package llm

import (
	"context"

	"github.com/xiaot623/docchat/internal/domain"
)

// Generator produces one answer per request from a model chat session.
type Generator interface {
	// Generate seeds a session with history, submits instruction as the
	// newest user turn and returns the complete response text.
	Generate(ctx context.Context, history []domain.ConversationTurn, instruction string) (string, error)
}

// Ensure implementations satisfy Generator.
var (
	_ Generator = (*GeminiClient)(nil)
	_ Generator = (*LangChainClient)(nil)
	_ Generator = (*MockClient)(nil)
)
