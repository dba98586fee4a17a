// Package store defines the storage interface and implementations.
package store

import (
	"context"

	"github.com/xiaot623/docchat/internal/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, documentID string) (*domain.Document, error)
	AddCollaborator(ctx context.Context, documentID, userID string) error
	SetIndexed(ctx context.Context, documentID string, indexed bool) error

	// Message operations. Messages are append-only.
	AppendMessage(ctx context.Context, documentID string, userID *string, text string) (*domain.Message, error)
	ListMessages(ctx context.Context, documentID string, limit int, afterSeq int64) ([]domain.Message, error)

	// Lifecycle
	Close() error
}
