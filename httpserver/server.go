// Package httpserver exposes a dispatcher as a single JSON-RPC endpoint over HTTP POST.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaharia-lab/jsonrpc"
	"github.com/shaharia-lab/jsonrpc/observability"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxRequestSize bounds request bodies unless overridden.
	DefaultMaxRequestSize int64 = 1 << 20

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-Id"

	shutdownTimeout = 5 * time.Second
)

// Dispatcher turns a raw request payload into a raw response payload.
type Dispatcher interface {
	Serve(ctx context.Context, req []byte) []byte
}

// Server serves JSON-RPC requests POSTed to one path.
type Server struct {
	dispatcher     Dispatcher
	logger         jsonrpc.Logger
	address        string
	path           string
	maxRequestSize int64
	limiter        *rate.Limiter
	allowedOrigins []string
	httpServer     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// UseLogger sets the server logger.
func UseLogger(logger jsonrpc.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// UseAddress sets the listen address used by ListenAndServe.
func UseAddress(address string) Option {
	return func(s *Server) {
		s.address = address
	}
}

// UsePath sets the endpoint path. Requests to other paths get 404.
func UsePath(path string) Option {
	return func(s *Server) {
		s.path = path
	}
}

// UseMaxRequestSize bounds the request body. Larger bodies are answered with an io failure and 413.
func UseMaxRequestSize(n int64) Option {
	return func(s *Server) {
		s.maxRequestSize = n
	}
}

// UseRateLimit allows perSecond requests with the given burst. Zero disables limiting.
func UseRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// UseAllowedOrigins enables CORS for the given origins; "*" allows any origin.
func UseAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// NewServer creates a Server in front of dispatcher.
func NewServer(dispatcher Dispatcher, opts ...Option) *Server {
	s := &Server{
		dispatcher:     dispatcher,
		logger:         jsonrpc.NewNullLogger(),
		address:        ":3000",
		path:           "/",
		maxRequestSize: DefaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, span := observability.StartSpan(r.Context(), "HTTPServer.ServeHTTP")
	defer span.End()

	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)
	span.SetAttributes(attribute.String("http.request_id", requestID))

	logger := s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"request_id": requestID,
		"method":     r.Method,
		"path":       r.URL.Path,
	})

	s.setCORSHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.URL.Path != s.path {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodPost {
		logger.Debug("Method not allowed")
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.limiter != nil && !s.limiter.Allow() {
		logger.Warn("Rate limit exceeded")
		s.writeError(w, http.StatusTooManyRequests, nil, jsonrpc.NewTransportError(errors.New("rate limit exceeded")))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxRequestSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.WithErr(err).Warn("Request body too large")
			s.writeError(w, http.StatusRequestEntityTooLarge, nil,
				jsonrpc.NewIOError(fmt.Errorf("request body exceeds %d bytes", s.maxRequestSize)))
			return
		}
		logger.WithErr(err).Error("Error reading request body")
		observability.RecordError(span, err)
		s.writeError(w, http.StatusBadRequest, nil, jsonrpc.NewIOError(err))
		return
	}
	span.SetAttributes(attribute.Int("request_size", len(body)))

	resp := s.dispatcher.Serve(ctx, body)
	logger.WithFields(map[string]interface{}{"response_size": len(resp)}).Debug("Request served")

	w.Header().Set("Content-Type", jsonrpc.DefaultContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp); err != nil {
		logger.WithErr(err).Error("Error writing response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, req []byte, err error) {
	w.Header().Set("Content-Type", jsonrpc.DefaultContentType)
	w.WriteHeader(status)
	_, _ = w.Write(jsonrpc.ErrorResponseFor(req, err))
}

func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.allowedOrigins) == 0 {
		return
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
			w.Header().Add("Vary", "Origin")
			return
		}
	}
}

// Run listens on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.address,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	s.logger.Info(fmt.Sprintf("Starting JSON-RPC HTTP server on %s%s", s.address, s.path))

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.WithErr(err).Error("Error during server shutdown")
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		s.logger.Info("Server gracefully shut down")
		return nil
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		s.logger.WithErr(err).Error("Error starting server")
		return fmt.Errorf("server error: %w", err)
	}
}
