package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xiaot623/docchat/internal/config"
	"github.com/xiaot623/docchat/internal/domain"
	"github.com/xiaot623/docchat/internal/observability"
	"github.com/xiaot623/docchat/internal/repository"
	"github.com/xiaot623/docchat/policy"
	"github.com/xiaot623/docchat/tests/helpers"
)

type fakeRetriever struct {
	mu       sync.Mutex
	calls    int
	queries  []string
	passages []domain.Passage
	err      error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, docID, query string) ([]domain.Passage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

func (f *fakeRetriever) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeGenerator struct {
	mu          sync.Mutex
	calls       int
	history     []domain.ConversationTurn
	instruction string
	answer      string
	err         error
}

func (f *fakeGenerator) Generate(ctx context.Context, history []domain.ConversationTurn, instruction string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.history = history
	f.instruction = instruction
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// failingStore fails the failOn-th AppendMessage call and passes every
// other call through.
type failingStore struct {
	store.Store
	mu      sync.Mutex
	failOn  int
	appends int
}

func (f *failingStore) AppendMessage(ctx context.Context, documentID string, userID *string, text string) (*domain.Message, error) {
	f.mu.Lock()
	f.appends++
	fail := f.appends == f.failOn
	f.mu.Unlock()
	if fail {
		return nil, errBackendDown
	}
	return f.Store.AppendMessage(ctx, documentID, userID, text)
}

type testEnv struct {
	svc       *Service
	store     store.Store
	retriever *fakeRetriever
	generator *fakeGenerator
	metrics   *observability.Metrics
	engine    *policy.Engine
	cfg       *config.Config
}

// failAppend rebuilds the service over a store whose failOn-th append fails.
func (e *testEnv) failAppend(failOn int) {
	e.svc = New(&failingStore{Store: e.store, failOn: failOn}, e.retriever, e.generator, e.engine, e.metrics, e.cfg)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db := helpers.NewTestSQLiteStore(t)
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	retriever := &fakeRetriever{passages: []domain.Passage{
		{DocumentID: "doc-1", Text: "Refunds are accepted within 14 calendar days of purchase."},
		{DocumentID: "doc-1", Text: "Contact support to start a refund."},
	}}
	generator := &fakeGenerator{answer: "The 14 days are calendar days, not business days."}
	metrics := observability.NewMetrics()
	cfg := &config.Config{Mode: config.ModeProduction, TopK: 4, MaxOutputTokens: 1000}

	helpers.SeedDocument(t, db, &domain.Document{
		DocumentID:    "doc-1",
		OwnerID:       "user-owner",
		Title:         "Refund policy",
		Collaborators: []string{"user-collab"},
		IsIndexed:     true,
		CreatedAt:     time.Now(),
	})
	helpers.SeedDocument(t, db, &domain.Document{
		DocumentID: "doc-raw",
		OwnerID:    "user-owner",
		Title:      "Not vectorized yet",
		IsIndexed:  false,
		CreatedAt:  time.Now(),
	})

	return &testEnv{
		svc:       New(db, retriever, generator, engine, metrics, cfg),
		store:     db,
		retriever: retriever,
		generator: generator,
		metrics:   metrics,
		engine:    engine,
		cfg:       cfg,
	}
}

func (e *testEnv) messages(t *testing.T, docID string) []domain.Message {
	t.Helper()
	msgs, err := e.store.ListMessages(context.Background(), docID, 0, 0)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	return msgs
}

var errBackendDown = errors.New("backend unreachable")
