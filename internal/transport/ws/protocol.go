package ws

import "github.com/xiaot623/docchat/internal/domain"

// Message types from client to server
const (
	TypeChat = "chat"
)

// Message types from server to client
const (
	TypeDelta = "delta"
	TypeDone  = "done"
	TypeError = "error"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ChatMessage asks a question about a document. It carries the same fields
// as the HTTP chat request body.
type ChatMessage struct {
	BaseMessage
	Messages []domain.ChatTurn `json:"messages"`
	DocID    string            `json:"docId"`
}

// DeltaMessage carries answer text.
type DeltaMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// DoneMessage ends a successful answer.
type DoneMessage struct {
	BaseMessage
}

// ErrorMessage is sent when a request fails.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeUnauthorized   = "unauthorized"
	ErrorCodeNotFound       = "not_found"
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeInternal       = "internal"
)
