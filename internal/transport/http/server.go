// Package http provides the HTTP server implementation for document chat.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/docchat/internal/observability"
	v1 "github.com/xiaot623/docchat/internal/transport/http/v1"
	"github.com/xiaot623/docchat/internal/transport/ws"
)

// NewExternalServer creates and configures the public HTTP server.
// chatWS may be nil, in which case the WebSocket route is not mounted.
func NewExternalServer(h *v1.Handler, chatWS *ws.Server, metrics *observability.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Register Routes
	h.RegisterRoutes(e)
	if chatWS != nil {
		chatWS.RegisterRoutes(e)
	}
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	return e
}
