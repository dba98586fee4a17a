package service

import (
	"strings"

	"github.com/xiaot623/docchat/internal/domain"
)

const (
	contextLabel = "Context from the document:"

	groundingDirective = "Based on the above context, please answer the following question. " +
		"If the information isn't found in the provided context, clearly state that. " +
		"Don't make assumptions or provide information not present in the context."

	// QuestionLabel prefixes the caller's question in the instruction.
	QuestionLabel = "Question:"
)

// AssemblePrompt maps every caller turn onto the model's two roles and builds
// the grounded instruction. Passages are joined in the order given.
func AssemblePrompt(turns []domain.ChatTurn, passages []domain.Passage, question string) ([]domain.ConversationTurn, string) {
	history := make([]domain.ConversationTurn, 0, len(turns))
	for _, turn := range turns {
		role := domain.TurnRoleModel
		if turn.Role == domain.RoleUser {
			role = domain.TurnRoleUser
		}
		history = append(history, domain.ConversationTurn{Role: role, Text: turn.Content})
	}

	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}

	var b strings.Builder
	b.WriteString(contextLabel)
	b.WriteString("\n")
	b.WriteString(strings.Join(texts, "\n"))
	b.WriteString("\n\n")
	b.WriteString(groundingDirective)
	b.WriteString("\n\n")
	b.WriteString(QuestionLabel)
	b.WriteString(" ")
	b.WriteString(question)

	return history, b.String()
}
