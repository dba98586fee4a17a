package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/docchat/internal/config"
	"github.com/xiaot623/docchat/internal/domain"
)

func userTurn(text string) domain.ChatTurn {
	return domain.ChatTurn{Role: domain.RoleUser, Content: text}
}

func assistantTurn(text string) domain.ChatTurn {
	return domain.ChatTurn{Role: domain.RoleAssistant, Content: text}
}

func TestChatRefundPolicyScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := "user-owner"

	// One prior exchange already stored.
	_, err := env.store.AppendMessage(ctx, "doc-1", &owner, "What is the refund policy?")
	require.NoError(t, err)
	_, err = env.store.AppendMessage(ctx, "doc-1", nil, "14 days.")
	require.NoError(t, err)

	req := &domain.ChatRequest{
		DocID: "doc-1",
		Messages: []domain.ChatTurn{
			userTurn("What is the refund policy?"),
			assistantTurn("14 days."),
			userTurn("Is that in business days?"),
		},
	}

	body, err := env.svc.Respond(ctx, owner, req)
	require.NoError(t, err)
	streamed, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "The 14 days are calendar days, not business days.", string(streamed))

	msgs := env.messages(t, "doc-1")
	require.Len(t, msgs, 4)
	assert.Equal(t, "What is the refund policy?", msgs[0].Text)
	assert.Equal(t, "14 days.", msgs[1].Text)
	assert.Equal(t, "Is that in business days?", msgs[2].Text)
	require.NotNil(t, msgs[2].UserID)
	assert.Equal(t, owner, *msgs[2].UserID)
	assert.True(t, msgs[3].IsAssistant())
	assert.Equal(t, string(streamed), msgs[3].Text)

	assert.Equal(t, []string{"Is that in business days?"}, env.retriever.queries)

	require.Equal(t, 1, env.generator.Calls())
	assert.Equal(t, []domain.ConversationTurn{
		{Role: domain.TurnRoleUser, Text: "What is the refund policy?"},
		{Role: domain.TurnRoleModel, Text: "14 days."},
		{Role: domain.TurnRoleUser, Text: "Is that in business days?"},
	}, env.generator.history)
	assert.Contains(t, env.generator.instruction, "14 calendar days")
	assert.True(t, strings.HasSuffix(env.generator.instruction, "Question: Is that in business days?"))

	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ChatRequests.WithLabelValues("ok")))
	// authorize, persist user turn, retrieve, assemble, generate, persist answer
	assert.Equal(t, 6, testutil.CollectAndCount(env.metrics.StageDuration))
}

func TestChatCollaboratorAllowed(t *testing.T) {
	env := newTestEnv(t)

	answer, err := env.svc.Chat(context.Background(), "user-collab", &domain.ChatRequest{
		DocID:    "doc-1",
		Messages: []domain.ChatTurn{userTurn("Who handles refunds?")},
	})
	require.NoError(t, err)
	assert.Nil(t, answer.UserID)
	assert.Len(t, env.messages(t, "doc-1"), 2)
}

func TestChatStrangerGetsNotFound(t *testing.T) {
	env := newTestEnv(t)
	req := &domain.ChatRequest{DocID: "doc-1", Messages: []domain.ChatTurn{userTurn("hi")}}

	_, err := env.svc.Respond(context.Background(), "user-stranger", req)
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, missingErr := env.svc.Respond(context.Background(), "user-stranger",
		&domain.ChatRequest{DocID: "doc-missing", Messages: []domain.ChatTurn{userTurn("hi")}})
	require.ErrorIs(t, missingErr, domain.ErrNotFound)
	assert.Equal(t, err.Error(), missingErr.Error())

	assert.Empty(t, env.messages(t, "doc-1"))
	assert.Zero(t, env.retriever.Calls())
	assert.Zero(t, env.generator.Calls())
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.ChatRequests.WithLabelValues("not_found")))
}

func TestChatWithoutIdentity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Respond(context.Background(), "",
		&domain.ChatRequest{DocID: "doc-1", Messages: []domain.ChatTurn{userTurn("hi")}})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.Empty(t, env.messages(t, "doc-1"))
	assert.Zero(t, env.retriever.Calls())
}

func TestChatNotIndexedNeverRetrieves(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Respond(context.Background(), "user-owner",
		&domain.ChatRequest{DocID: "doc-raw", Messages: []domain.ChatTurn{userTurn("hi")}})
	require.ErrorIs(t, err, domain.ErrNotIndexed)

	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, domain.StageCheckIndex, stageErr.Stage)

	assert.Empty(t, env.messages(t, "doc-raw"))
	assert.Zero(t, env.retriever.Calls())
	assert.Zero(t, env.generator.Calls())
}

func TestChatToolContinuationSkipsUserTurn(t *testing.T) {
	env := newTestEnv(t)

	req := &domain.ChatRequest{
		DocID: "doc-1",
		Messages: []domain.ChatTurn{
			userTurn("Summarize section 2"),
			{
				Role:    domain.RoleAssistant,
				Content: "",
				ToolInvocations: []domain.ToolInvocation{
					{ToolCallID: "call_1", ToolName: "lookupSection", State: "result"},
				},
			},
		},
	}

	_, err := env.svc.Respond(context.Background(), "user-owner", req)
	require.NoError(t, err)

	msgs := env.messages(t, "doc-1")
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsAssistant())
	assert.Equal(t, 1, env.retriever.Calls())
	assert.Equal(t, 1, env.generator.Calls())
}

func TestChatRetrievalFailureKeepsUserTurn(t *testing.T) {
	env := newTestEnv(t)
	env.retriever.err = errBackendDown

	_, err := env.svc.Respond(context.Background(), "user-owner",
		&domain.ChatRequest{DocID: "doc-1", Messages: []domain.ChatTurn{userTurn("hi")}})
	require.ErrorIs(t, err, domain.ErrRetrieval)
	require.ErrorIs(t, err, errBackendDown)

	msgs := env.messages(t, "doc-1")
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsAssistant())
	assert.Zero(t, env.generator.Calls())
}

func TestChatGenerationFailurePersistsNoAnswer(t *testing.T) {
	env := newTestEnv(t)
	env.generator.err = errBackendDown

	_, err := env.svc.Respond(context.Background(), "user-owner",
		&domain.ChatRequest{DocID: "doc-1", Messages: []domain.ChatTurn{userTurn("hi")}})
	require.ErrorIs(t, err, domain.ErrGeneration)
	assert.Equal(t, "generation", domain.Kind(err))

	msgs := env.messages(t, "doc-1")
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsAssistant())
}

func TestChatUserTurnStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.failAppend(1)

	_, err := env.svc.Respond(context.Background(), "user-owner",
		&domain.ChatRequest{DocID: "doc-1", Messages: []domain.ChatTurn{userTurn("hi")}})
	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, "storage", domain.Kind(err))

	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, domain.StagePersistUser, stageErr.Stage)

	assert.Zero(t, env.retriever.Calls())
	assert.Zero(t, env.generator.Calls())
	assert.Empty(t, env.messages(t, "doc-1"))
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ChatRequests.WithLabelValues("storage")))
}

func TestChatAnswerStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.failAppend(2)

	body, err := env.svc.Respond(context.Background(), "user-owner",
		&domain.ChatRequest{DocID: "doc-1", Messages: []domain.ChatTurn{userTurn("hi")}})
	require.ErrorIs(t, err, domain.ErrStorage)
	assert.Nil(t, body)

	var stageErr *domain.StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, domain.StagePersistAnswer, stageErr.Stage)

	assert.Equal(t, 1, env.generator.Calls())
	msgs := env.messages(t, "doc-1")
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].IsAssistant())
}

func TestChatInvalidRequest(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Respond(context.Background(), "user-owner", &domain.ChatRequest{DocID: "doc-1"})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.Zero(t, env.retriever.Calls())
}

func TestAppendOrderMatchesCallOrder(t *testing.T) {
	env := newTestEnv(t)
	owner := "user-owner"

	for i := 0; i < 3; i++ {
		_, err := env.svc.Chat(context.Background(), owner, &domain.ChatRequest{
			DocID:    "doc-1",
			Messages: []domain.ChatTurn{userTurn("question " + string(rune('A'+i)))},
		})
		require.NoError(t, err)
	}

	msgs := env.messages(t, "doc-1")
	require.Len(t, msgs, 6)
	for i := 0; i < 3; i++ {
		assert.Equal(t, "question "+string(rune('A'+i)), msgs[2*i].Text)
		assert.True(t, msgs[2*i+1].IsAssistant())
	}
	for i := 1; i < len(msgs); i++ {
		assert.Greater(t, msgs[i].Seq, msgs[i-1].Seq)
	}
}

func TestSelectResponder(t *testing.T) {
	env := newTestEnv(t)

	assert.Same(t, env.svc, SelectResponder(config.ModeProduction, env.svc))
	assert.IsType(t, &SimulatedResponder{}, SelectResponder(config.ModeDevelopment, env.svc))
}

func TestSimulatedResponderTouchesNothing(t *testing.T) {
	env := newTestEnv(t)
	r := &SimulatedResponder{Answer: "one two three", Delay: time.Millisecond}

	body, err := r.Respond(context.Background(), "", &domain.ChatRequest{DocID: "doc-1"})
	require.NoError(t, err)
	out, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "one two three", string(out))

	assert.Empty(t, env.messages(t, "doc-1"))
	assert.Zero(t, env.retriever.Calls())
	assert.Zero(t, env.generator.Calls())
}

func TestSimulatedResponderStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &SimulatedResponder{Answer: "a b c d e f", Delay: time.Hour}

	body, err := r.Respond(ctx, "", nil)
	require.NoError(t, err)
	cancel()

	_, err = io.ReadAll(body)
	assert.ErrorIs(t, err, context.Canceled)
}
