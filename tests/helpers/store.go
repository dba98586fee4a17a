package helpers

import (
	"context"
	"testing"

	"github.com/xiaot623/docchat/internal/domain"
	"github.com/xiaot623/docchat/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// SeedDocument inserts a document or fails the test.
func SeedDocument(t *testing.T, s store.Store, doc *domain.Document) {
	t.Helper()

	if err := s.CreateDocument(context.Background(), doc); err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
}
