// Package v1 provides the public HTTP handlers for document chat.
package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/docchat/internal/adapter/session"
	"github.com/xiaot623/docchat/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service   *service.Service
	responder service.Responder
	sessions  *session.Provider

	// requireIdentity rejects anonymous chat requests before the body is read.
	requireIdentity bool
	requestTimeout  time.Duration
}

// Options configures NewHandler.
type Options struct {
	RequireIdentity bool
	RequestTimeout  time.Duration
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, responder service.Responder, sessions *session.Provider, opts Options) *Handler {
	return &Handler{
		service:         svc,
		responder:       responder,
		sessions:        sessions,
		requireIdentity: opts.RequireIdentity,
		requestTimeout:  opts.RequestTimeout,
	}
}

// ChatMiddleware returns the middleware chain in front of chat endpoints.
func (h *Handler) ChatMiddleware() []echo.MiddlewareFunc {
	var mw []echo.MiddlewareFunc
	if h.requireIdentity {
		mw = append(mw, session.RequireIdentity)
	}
	if h.requestTimeout > 0 {
		mw = append(mw, middleware.ContextTimeout(h.requestTimeout))
	}
	return mw
}

// RegisterRoutes registers public routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api", session.Middleware(h.sessions))

	api.POST("/chat", h.Chat, h.ChatMiddleware()...)
	api.GET("/documents/:doc_id/messages", h.GetDocumentMessages, session.RequireIdentity)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
