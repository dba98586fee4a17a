package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/docchat/internal/adapter/session"
)

// GetDocumentMessages retrieves the transcript of a document.
// GET /api/documents/:doc_id/messages
func (h *Handler) GetDocumentMessages(c echo.Context) error {
	docID := c.Param("doc_id")
	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}
	afterSeq := int64(0)
	if a := c.QueryParam("after"); a != "" {
		if val, err := strconv.ParseInt(a, 10, 64); err == nil {
			afterSeq = val
		}
	}

	ctx := c.Request().Context()

	messages, hasMore, err := h.service.GetMessages(ctx, session.IdentityFrom(c), docID, limit, afterSeq)
	if err != nil {
		status, msg := statusFor(err)
		return c.JSON(status, map[string]string{"error": msg})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
		"has_more": hasMore,
	})
}
