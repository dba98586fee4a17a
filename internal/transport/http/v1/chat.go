package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/docchat/internal/adapter/session"
	"github.com/xiaot623/docchat/internal/domain"
)

// Chat answers a question about a document.
// POST /api/chat
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		slog.Debug("chat request body rejected", "error", err)
		return c.String(http.StatusBadRequest, bodyBadRequest)
	}
	if err := req.Validate(); err != nil {
		slog.Debug("chat request invalid", "error", err)
		return c.String(http.StatusBadRequest, bodyBadRequest)
	}

	body, err := h.responder.Respond(c.Request().Context(), session.IdentityFrom(c), &req)
	if err != nil {
		status, msg := statusFor(err)
		return c.String(status, msg)
	}
	return streamText(c, body)
}
