package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/xiaot623/docchat/internal/domain"
)

const questionMarker = "Question:"

// MockClient is a deterministic Generator for tests and offline runs.
type MockClient struct{}

// NewMockClient creates a new mock generator.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Generate answers with the question found at the end of the instruction.
func (m *MockClient) Generate(ctx context.Context, history []domain.ConversationTurn, instruction string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	question := instruction
	if i := strings.LastIndex(instruction, questionMarker); i >= 0 {
		question = strings.TrimSpace(instruction[i+len(questionMarker):])
	}
	return fmt.Sprintf("[MOCK] Received your question: %q with %d turns of history.", truncate(question, 100), len(history)), nil
}

// truncate truncates a string to the given length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
