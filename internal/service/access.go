package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xiaot623/docchat/internal/domain"
	"github.com/xiaot623/docchat/policy"
)

// Authorize returns the document when identity may read it.
//
// An empty identity fails with ErrUnauthorized before the store is read.
// A missing document and a denied one fail with the same ErrNotFound, so
// callers cannot probe which documents exist.
func (s *Service) Authorize(ctx context.Context, identity, docID string) (*domain.Document, error) {
	if identity == "" {
		return nil, domain.NewStageError(domain.ErrUnauthorized, domain.StageAuthorize, nil)
	}

	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, domain.NewStageError(domain.ErrStorage, domain.StageAuthorize, err)
	}
	if doc == nil {
		slog.Debug("document lookup missed", "doc_id", docID, "user_id", identity)
		return nil, concealExistence()
	}

	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		UserID: identity,
		Document: policy.DocumentInput{
			ID:            doc.DocumentID,
			OwnerID:       doc.OwnerID,
			Collaborators: doc.Collaborators,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", domain.StageAuthorize, err)
	}
	if decision != policy.DecisionAllow {
		slog.Debug("document access denied", "doc_id", docID, "user_id", identity)
		return nil, concealExistence()
	}
	return doc, nil
}

// concealExistence is the single answer for "no such document" and
// "not allowed to read it".
func concealExistence() error {
	return domain.NewStageError(domain.ErrNotFound, domain.StageAuthorize, nil)
}
