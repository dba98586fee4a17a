package service

import (
	"context"

	"github.com/xiaot623/docchat/internal/adapter/llm"
	"github.com/xiaot623/docchat/internal/config"
	"github.com/xiaot623/docchat/internal/domain"
	"github.com/xiaot623/docchat/internal/observability"
	"github.com/xiaot623/docchat/internal/repository"
	"github.com/xiaot623/docchat/policy"
)

// Retriever returns the passages of one document most relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, docID, query string) ([]domain.Passage, error)
}

type Service struct {
	store        store.Store
	retriever    Retriever
	generator    llm.Generator
	policyEngine *policy.Engine
	metrics      *observability.Metrics
	config       *config.Config
}

func New(store store.Store, retriever Retriever, generator llm.Generator, policyEngine *policy.Engine, metrics *observability.Metrics, cfg *config.Config) *Service {
	return &Service{
		store:        store,
		retriever:    retriever,
		generator:    generator,
		policyEngine: policyEngine,
		metrics:      metrics,
		config:       cfg,
	}
}
