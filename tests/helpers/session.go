package helpers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/xiaot623/docchat/internal/domain"
)

// TestSessionSecret signs tokens accepted by session providers built in tests.
const TestSessionSecret = "test-session-secret"

// SignSessionToken returns an HS256 session token for subject valid for an hour.
func SignSessionToken(t *testing.T, subject string) string {
	t.Helper()

	tok, err := jwt.NewBuilder().
		Subject(subject).
		IssuedAt(time.Now()).
		Expiration(time.Now().Add(time.Hour)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256(), []byte(TestSessionSecret)))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

// StaticRetriever returns the same passages for every query and counts calls.
type StaticRetriever struct {
	Passages []domain.Passage

	mu    sync.Mutex
	calls int
}

func (r *StaticRetriever) Retrieve(ctx context.Context, docID, query string) ([]domain.Passage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.Passages, nil
}

// Calls returns how many times Retrieve ran.
func (r *StaticRetriever) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}
