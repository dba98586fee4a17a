package service

import (
	"context"

	"github.com/xiaot623/docchat/internal/domain"
)

const (
	defaultTranscriptLimit = 50
	maxTranscriptLimit     = 200
)

// GetMessages returns up to limit messages of docID after seq afterSeq, in
// creation order, and whether more follow. Access rules match Chat.
func (s *Service) GetMessages(ctx context.Context, identity, docID string, limit int, afterSeq int64) ([]domain.Message, bool, error) {
	if _, err := s.Authorize(ctx, identity, docID); err != nil {
		return nil, false, err
	}

	if limit <= 0 {
		limit = defaultTranscriptLimit
	}
	if limit > maxTranscriptLimit {
		limit = maxTranscriptLimit
	}

	messages, err := s.store.ListMessages(ctx, docID, limit+1, afterSeq)
	if err != nil {
		return nil, false, domain.NewStageError(domain.ErrStorage, domain.StageListTranscript, err)
	}

	if messages == nil {
		messages = []domain.Message{}
	}
	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}
	return messages, hasMore, nil
}
