package domain

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Caller-side roles accepted in a chat request.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleFunction  = "function"
	RoleData      = "data"
	RoleTool      = "tool"
)

// MaxMessageContentBytes bounds a single turn's content in bytes. It matches
// the maxbytes tag on ChatTurn.Content.
const MaxMessageContentBytes = 32 * 1024

var requestValidate = newRequestValidator()

// newRequestValidator adds "maxbytes", which bounds a string's encoded length.
// The built-in "max" counts runes.
func newRequestValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	}); err != nil {
		panic(err)
	}
	return v
}

// ToolInvocation is a function call recorded on a turn.
type ToolInvocation struct {
	ToolCallID string          `json:"toolCallId"`
	ToolName   string          `json:"toolName"`
	State      string          `json:"state,omitempty"`
	Args       json.RawMessage `json:"args,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
}

// ChatTurn is one entry of the caller-supplied history.
type ChatTurn struct {
	ID              string           `json:"id,omitempty"`
	Role            string           `json:"role" validate:"required,oneof=user assistant system function data tool"`
	Content         string           `json:"content" validate:"maxbytes=32768"`
	ToolInvocations []ToolInvocation `json:"toolInvocations,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []ChatTurn `json:"messages" validate:"required,min=1,dive"`
	DocID    string     `json:"docId" validate:"required"`
}

// Validate validates the request against its schema.
func (r *ChatRequest) Validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// LastTurn returns the newest turn. The request must be validated.
func (r *ChatRequest) LastTurn() ChatTurn {
	return r.Messages[len(r.Messages)-1]
}

// IsToolContinuation reports whether the newest turn carries tool invocations,
// in which case it continues a tool exchange instead of asking a new question.
func (r *ChatRequest) IsToolContinuation() bool {
	return len(r.LastTurn().ToolInvocations) > 0
}
