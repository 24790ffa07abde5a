// Package wsserver serves a dispatcher over WebSocket: every text message is one request
// and is answered with one text message on the same connection.
package wsserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/shaharia-lab/jsonrpc"
	"github.com/shaharia-lab/jsonrpc/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultReadLimit bounds a single inbound message unless overridden.
const DefaultReadLimit int64 = 1 << 20

// Dispatcher turns a raw request payload into a raw response payload.
type Dispatcher interface {
	Serve(ctx context.Context, req []byte) []byte
}

// Handler upgrades HTTP requests to WebSocket connections served by a dispatcher.
type Handler struct {
	dispatcher     Dispatcher
	logger         jsonrpc.Logger
	readLimit      int64
	originPatterns []string
}

// Option configures a Handler.
type Option func(*Handler)

// UseLogger sets the handler logger.
func UseLogger(logger jsonrpc.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// UseReadLimit bounds a single inbound message. Oversized messages close the connection.
func UseReadLimit(n int64) Option {
	return func(h *Handler) {
		h.readLimit = n
	}
}

// UseOriginPatterns lists cross-origin hosts allowed to connect.
func UseOriginPatterns(patterns ...string) Option {
	return func(h *Handler) {
		h.originPatterns = patterns
	}
}

// NewHandler creates a Handler in front of dispatcher.
func NewHandler(dispatcher Dispatcher, opts ...Option) *Handler {
	h := &Handler{
		dispatcher: dispatcher,
		logger:     jsonrpc.NewNullLogger(),
		readLimit:  DefaultReadLimit,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.WithErr(err).Warn("WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(h.readLimit)

	connID := uuid.NewString()
	logger := h.logger.WithFields(map[string]interface{}{"connection_id": connID})
	logger.Info("WebSocket client connected")

	err = h.serve(r.Context(), conn, connID, logger)
	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		logger.Info("WebSocket client disconnected")
	case errors.Is(err, context.Canceled):
		logger.Info("WebSocket connection cancelled")
	default:
		logger.WithErr(err).Warn("WebSocket connection closed")
	}
}

func (h *Handler) serve(ctx context.Context, conn *websocket.Conn, connID string, logger jsonrpc.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	defer wg.Wait()
	defer conn.CloseNow()

	for {
		typ, msg, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			_ = conn.Close(websocket.StatusUnsupportedData, "text messages only")
			return errors.New("binary message received")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			h.reply(ctx, conn, connID, msg, logger)
		}()
	}
}

func (h *Handler) reply(ctx context.Context, conn *websocket.Conn, connID string, msg []byte, logger jsonrpc.Logger) {
	ctx, span := observability.StartSpan(ctx, "WebSocket.Message")
	defer span.End()
	span.SetAttributes(
		attribute.String("ws.connection_id", connID),
		attribute.Int("request_size", len(msg)),
	)

	resp := h.serveRecovered(ctx, msg, span, logger)
	if err := conn.Write(ctx, websocket.MessageText, resp); err != nil {
		observability.RecordError(span, err)
		logger.WithErr(err).Debug("Error writing response")
	}
}

// serveRecovered turns a handler panic into a custom error response so the
// connection and the process stay up.
func (h *Handler) serveRecovered(ctx context.Context, msg []byte, span trace.Span, logger jsonrpc.Logger) (resp []byte) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("handler panic: %v", r)
			observability.RecordError(span, err)
			logger.WithFields(map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("Panic recovered in WebSocket handler")
			resp = jsonrpc.ErrorResponseFor(msg, jsonrpc.NewCustomError("internal error"))
		}
	}()
	return h.dispatcher.Serve(ctx, msg)
}
