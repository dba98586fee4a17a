package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/xiaot623/docchat/internal/domain"
)

const simulatedAnswer = "This is a simulated answer from the development server. " +
	"No document was read, no passages were retrieved and no model was called, " +
	"so nothing was saved to the conversation."

// SimulatedResponder streams a canned answer word by word. It never reads the
// store, the index or the model.
type SimulatedResponder struct {
	Answer string
	Delay  time.Duration
}

// NewSimulatedResponder creates a responder with the default canned answer.
func NewSimulatedResponder() *SimulatedResponder {
	return &SimulatedResponder{Answer: simulatedAnswer, Delay: 50 * time.Millisecond}
}

// Respond implements Responder.
func (r *SimulatedResponder) Respond(ctx context.Context, identity string, req *domain.ChatRequest) (io.Reader, error) {
	pr, pw := io.Pipe()
	go func() {
		words := strings.SplitAfter(r.Answer, " ")
		for _, word := range words {
			if r.Delay > 0 {
				select {
				case <-ctx.Done():
					pw.CloseWithError(ctx.Err())
					return
				case <-time.After(r.Delay):
				}
			}
			if _, err := io.WriteString(pw, word); err != nil {
				return
			}
		}
		pw.Close()
	}()
	return pr, nil
}
