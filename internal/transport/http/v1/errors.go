package v1

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/xiaot623/docchat/internal/domain"
)

// Response bodies are fixed per status so failures leak no detail.
const (
	bodyUnauthorized = "Unauthorized"
	bodyNotFound     = "Document not found"
	bodyBadRequest   = "Bad Request"
	bodyInternal     = "Internal Server Error"
)

// statusFor maps a pipeline error to its HTTP status and public body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, bodyUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, bodyNotFound
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, bodyBadRequest
	default:
		slog.Error("request failed", "kind", domain.Kind(err), "error", err)
		return http.StatusInternalServerError, bodyInternal
	}
}
