package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xiaot623/docchat/internal/config"
	"github.com/xiaot623/docchat/internal/domain"
	"github.com/xiaot623/docchat/internal/observability"
)

// Responder produces the answer body for a validated chat request.
type Responder interface {
	Respond(ctx context.Context, identity string, req *domain.ChatRequest) (io.Reader, error)
}

var (
	_ Responder = (*Service)(nil)
	_ Responder = (*SimulatedResponder)(nil)
)

// SelectResponder picks the simulated responder in development mode and the
// real pipeline otherwise.
func SelectResponder(mode string, svc *Service) Responder {
	if mode == config.ModeDevelopment {
		slog.Warn("development mode: chat requests get a simulated answer")
		return NewSimulatedResponder()
	}
	return svc
}

// Respond runs the chat pipeline and returns the answer as a single chunk.
func (s *Service) Respond(ctx context.Context, identity string, req *domain.ChatRequest) (io.Reader, error) {
	answer, err := s.Chat(ctx, identity, req)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(answer.Text), nil
}

// Chat answers the newest turn of req about req.DocID and returns the stored
// assistant message.
func (s *Service) Chat(ctx context.Context, identity string, req *domain.ChatRequest) (*domain.Message, error) {
	start := time.Now()
	answer, err := s.chat(ctx, identity, req)
	s.metrics.RecordRequest(domain.Kind(err))
	if err != nil {
		slog.Warn("chat request failed",
			"doc_id", req.DocID,
			"user_id", identity,
			"kind", domain.Kind(err),
			"error", err)
		return nil, err
	}
	slog.Info("chat request answered",
		"doc_id", req.DocID,
		"user_id", identity,
		"message_id", answer.MessageID,
		"duration_ms", time.Since(start).Milliseconds())
	return answer, nil
}

func (s *Service) chat(ctx context.Context, identity string, req *domain.ChatRequest) (*domain.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stageStart := time.Now()
	doc, err := s.Authorize(ctx, identity, req.DocID)
	s.metrics.ObserveStage(domain.StageAuthorize, stageStart)
	if err != nil {
		return nil, err
	}

	if !doc.IsIndexed {
		return nil, domain.NewStageError(domain.ErrNotIndexed, domain.StageCheckIndex, nil)
	}

	question := req.LastTurn().Content
	continuation := req.IsToolContinuation()

	if !continuation {
		stageStart = time.Now()
		author := identity
		_, err := s.store.AppendMessage(ctx, doc.DocumentID, &author, question)
		s.metrics.ObserveStage(domain.StagePersistUser, stageStart)
		if err != nil {
			return nil, domain.NewStageError(domain.ErrStorage, domain.StagePersistUser, err)
		}
		s.metrics.RecordAppend(observability.AuthorUser)
	}

	stageStart = time.Now()
	passages, err := s.retriever.Retrieve(ctx, doc.DocumentID, question)
	s.metrics.ObserveStage(domain.StageRetrieve, stageStart)
	if err != nil {
		return nil, domain.NewStageError(domain.ErrRetrieval, domain.StageRetrieve, err)
	}

	stageStart = time.Now()
	history, instruction := AssemblePrompt(req.Messages, passages, question)
	s.metrics.ObserveStage(domain.StageAssemble, stageStart)
	slog.Debug("prompt assembled",
		"doc_id", doc.DocumentID,
		"passages", len(passages),
		"history_len", len(history),
		"tool_continuation", continuation)

	stageStart = time.Now()
	text, err := s.generator.Generate(ctx, history, instruction)
	s.metrics.ObserveStage(domain.StageGenerate, stageStart)
	if err != nil {
		return nil, domain.NewStageError(domain.ErrGeneration, domain.StageGenerate, err)
	}

	stageStart = time.Now()
	answer, err := s.store.AppendMessage(ctx, doc.DocumentID, nil, text)
	s.metrics.ObserveStage(domain.StagePersistAnswer, stageStart)
	if err != nil {
		return nil, domain.NewStageError(domain.ErrStorage, domain.StagePersistAnswer, err)
	}
	s.metrics.RecordAppend(observability.AuthorAssistant)

	return answer, nil
}
