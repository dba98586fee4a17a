// Package domain defines the core domain models for document chat.
package domain

import "time"

// Document is the unit of content a conversation is about.
type Document struct {
	DocumentID    string    `json:"document_id"`
	OwnerID       string    `json:"owner_id"`
	Title         string    `json:"title,omitempty"`
	Collaborators []string  `json:"collaborators,omitempty"`
	IsIndexed     bool      `json:"is_indexed"`
	CreatedAt     time.Time `json:"created_at"`
}

// Message is one persisted entry of a document's transcript.
// A nil UserID marks an assistant message.
type Message struct {
	Seq        int64     `json:"seq"`
	MessageID  string    `json:"message_id"`
	DocumentID string    `json:"document_id"`
	UserID     *string   `json:"user_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsAssistant reports whether the message was written by the model.
func (m *Message) IsAssistant() bool {
	return m.UserID == nil
}

// TurnRole is the two-role vocabulary understood by the model.
type TurnRole string

const (
	TurnRoleUser  TurnRole = "user"
	TurnRoleModel TurnRole = "model"
)

// ConversationTurn is a role-tagged message fed to the model.
type ConversationTurn struct {
	Role TurnRole
	Text string
}

// Passage is a chunk of document text returned by the similarity index.
type Passage struct {
	DocumentID string
	Text       string
	Distance   float64
}
