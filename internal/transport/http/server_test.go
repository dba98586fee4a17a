package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/docchat/internal/adapter/llm"
	"github.com/xiaot623/docchat/internal/adapter/session"
	"github.com/xiaot623/docchat/internal/config"
	"github.com/xiaot623/docchat/internal/observability"
	"github.com/xiaot623/docchat/internal/service"
	v1 "github.com/xiaot623/docchat/internal/transport/http/v1"
	"github.com/xiaot623/docchat/policy"
	"github.com/xiaot623/docchat/tests/helpers"
)

func TestNewExternalServerRoutes(t *testing.T) {
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	metrics := observability.NewMetrics()
	svc := service.New(helpers.NewTestSQLiteStore(t), &helpers.StaticRetriever{}, llm.NewMockClient(), engine, metrics, &config.Config{})
	h := v1.NewHandler(svc, svc, session.NewProvider(helpers.TestSessionSecret, ""), v1.Options{RequireIdentity: true})

	e := NewExternalServer(h, nil, metrics)
	metrics.RecordRequest("ok")

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docchat_chat_requests_total")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
