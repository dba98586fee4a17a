// Package ws serves document chat over a WebSocket connection.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/xiaot623/docchat/internal/adapter/session"
	"github.com/xiaot623/docchat/internal/domain"
	"github.com/xiaot623/docchat/internal/service"
)

// Options configures NewServer.
type Options struct {
	RequireIdentity bool
	RequestTimeout  time.Duration
	MaxMessageSize  int64
	WriteTimeout    time.Duration
}

// Server handles WebSocket chat connections.
type Server struct {
	responder service.Responder
	sessions  *session.Provider
	opts      Options
	upgrader  websocket.Upgrader
}

// NewServer creates a new WebSocket server.
func NewServer(responder service.Responder, sessions *session.Provider, opts Options) *Server {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 64 * 1024
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Server{
		responder: responder,
		sessions:  sessions,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes mounts the chat socket at /api/chat/ws.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	mw := []echo.MiddlewareFunc{session.Middleware(s.sessions)}
	if s.opts.RequireIdentity {
		mw = append(mw, session.RequireIdentity)
	}
	e.GET("/api/chat/ws", s.HandleWebSocket, mw...)
}

// HandleWebSocket upgrades the connection and serves chat requests on it
// one at a time until the client disconnects.
func (s *Server) HandleWebSocket(c echo.Context) error {
	identity := session.IdentityFrom(c)

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("failed to upgrade websocket", "error", err)
		return nil
	}
	defer conn.Close()

	conn.SetReadLimit(s.opts.MaxMessageSize)
	ctx := c.Request().Context()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "error", err)
			}
			return nil
		}
		if err := s.handleMessage(ctx, conn, identity, data); err != nil {
			slog.Warn("websocket write failed", "error", err)
			return nil
		}
	}
}

// handleMessage answers one client message. The returned error is a write
// failure; request failures are reported to the client.
func (s *Server) handleMessage(ctx context.Context, conn *websocket.Conn, identity string, data []byte) error {
	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return s.sendError(conn, "", ErrorCodeInvalidRequest, "invalid JSON message")
	}
	if msg.RequestID == "" {
		msg.RequestID = "req_" + uuid.New().String()[:8]
	}
	if msg.Type != TypeChat {
		return s.sendError(conn, msg.RequestID, ErrorCodeInvalidRequest, "unknown message type: "+msg.Type)
	}

	req := &domain.ChatRequest{Messages: msg.Messages, DocID: msg.DocID}
	if err := req.Validate(); err != nil {
		return s.sendError(conn, msg.RequestID, ErrorCodeInvalidRequest, "invalid chat request")
	}

	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	body, err := s.responder.Respond(ctx, identity, req)
	if err != nil {
		code, text := errorCode(err)
		return s.sendError(conn, msg.RequestID, code, text)
	}
	answer, err := io.ReadAll(body)
	if err != nil {
		slog.Error("reading answer failed", "request_id", msg.RequestID, "error", err)
		return s.sendError(conn, msg.RequestID, ErrorCodeInternal, "Internal Server Error")
	}

	if err := s.send(conn, DeltaMessage{
		BaseMessage: s.base(TypeDelta, msg.RequestID),
		Text:        string(answer),
	}); err != nil {
		return err
	}
	return s.send(conn, DoneMessage{BaseMessage: s.base(TypeDone, msg.RequestID)})
}

func errorCode(err error) (string, string) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return ErrorCodeUnauthorized, "Unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return ErrorCodeNotFound, "Document not found"
	case errors.Is(err, domain.ErrInvalidRequest):
		return ErrorCodeInvalidRequest, "Bad Request"
	default:
		slog.Error("websocket chat failed", "kind", domain.Kind(err), "error", err)
		return ErrorCodeInternal, "Internal Server Error"
	}
}

func (s *Server) base(typ, requestID string) BaseMessage {
	return BaseMessage{Type: typ, Ts: time.Now().UnixMilli(), RequestID: requestID}
}

func (s *Server) sendError(conn *websocket.Conn, requestID, code, message string) error {
	return s.send(conn, ErrorMessage{
		BaseMessage: s.base(TypeError, requestID),
		Code:        code,
		Message:     message,
	})
}

func (s *Server) send(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	return conn.WriteJSON(v)
}
