// Package session resolves the authenticated identity behind a request.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

// ContextKey is the echo context key holding the caller identity.
const ContextKey = "identity"

var errNoSubject = errors.New("session token has no subject")

// Provider verifies HS256 session tokens issued by the identity service.
type Provider struct {
	secret     []byte
	cookieName string
}

// NewProvider creates a session provider.
func NewProvider(secret, cookieName string) *Provider {
	return &Provider{
		secret:     []byte(secret),
		cookieName: cookieName,
	}
}

// Identity returns the user id of the request's session, or "" when the
// request carries no valid session.
func (p *Provider) Identity(r *http.Request) string {
	raw := p.token(r)
	if raw == "" {
		return ""
	}
	userID, err := p.Verify(raw)
	if err != nil {
		slog.Debug("rejected session token", "error", err)
		return ""
	}
	return userID
}

// Verify checks signature and expiry of a token and returns its subject.
func (p *Provider) Verify(raw string) (string, error) {
	if len(p.secret) == 0 {
		return "", errors.New("session secret not configured")
	}
	tok, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256(), p.secret), jwt.WithValidate(true))
	if err != nil {
		return "", fmt.Errorf("parse session token: %w", err)
	}
	sub, ok := tok.Subject()
	if !ok || sub == "" {
		return "", errNoSubject
	}
	return sub, nil
}

func (p *Provider) token(r *http.Request) string {
	if auth := r.Header.Get(echo.HeaderAuthorization); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if p.cookieName != "" {
		if cookie, err := r.Cookie(p.cookieName); err == nil {
			return cookie.Value
		}
	}
	return ""
}

// Middleware stores the caller identity (possibly empty) in the echo context.
func Middleware(p *Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ContextKey, p.Identity(c.Request()))
			return next(c)
		}
	}
}

// RequireIdentity rejects requests without an identity before the handler runs.
func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if IdentityFrom(c) == "" {
			return c.String(http.StatusUnauthorized, "Unauthorized")
		}
		return next(c)
	}
}

// IdentityFrom returns the identity stored by Middleware.
func IdentityFrom(c echo.Context) string {
	id, _ := c.Get(ContextKey).(string)
	return id
}
