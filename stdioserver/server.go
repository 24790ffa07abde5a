// Package stdioserver serves a dispatcher over newline-delimited JSON: one request per
// input line, one response per output line, in input order.
package stdioserver

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/shaharia-lab/jsonrpc"
	"github.com/shaharia-lab/jsonrpc/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultMaxLineSize bounds a single request line unless overridden.
const DefaultMaxLineSize = 1 << 20

// Dispatcher turns a raw request payload into a raw response payload.
type Dispatcher interface {
	Serve(ctx context.Context, req []byte) []byte
}

// Server reads requests from in and writes responses to out.
type Server struct {
	dispatcher  Dispatcher
	in          io.Reader
	out         io.Writer
	logger      jsonrpc.Logger
	maxLineSize int
}

// Option configures a Server.
type Option func(*Server)

// UseLogger sets the server logger. It must not write to the server output.
func UseLogger(logger jsonrpc.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// UseMaxLineSize bounds a single request line. A longer line stops the server.
func UseMaxLineSize(n int) Option {
	return func(s *Server) {
		s.maxLineSize = n
	}
}

// NewServer creates a Server in front of dispatcher.
func NewServer(dispatcher Dispatcher, in io.Reader, out io.Writer, opts ...Option) *Server {
	s := &Server{
		dispatcher:  dispatcher,
		in:          in,
		out:         out,
		logger:      jsonrpc.NewNullLogger(),
		maxLineSize: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run serves lines until the input ends, ctx is cancelled or the output fails.
// End of input returns nil.
func (s *Server) Run(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "StdIOServer.Run")
	defer span.End()

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, min(64*1024, s.maxLineSize)), s.maxLineSize)

	done := make(chan error, 1)
	go func() {
		w := bufio.NewWriter(s.out)
		for scanner.Scan() {
			if ctx.Err() != nil {
				done <- ctx.Err()
				return
			}

			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			resp := s.serveLine(ctx, line)
			if _, err := w.Write(append(resp, '\n')); err != nil {
				done <- fmt.Errorf("failed to write response: %w", err)
				return
			}
			if err := w.Flush(); err != nil {
				done <- fmt.Errorf("failed to write response: %w", err)
				return
			}
		}
		if err := scanner.Err(); err != nil {
			done <- fmt.Errorf("scanner error: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case <-ctx.Done():
		s.logger.Debug("Context cancelled, StdIOServer shutting down")
		return ctx.Err()
	case err := <-done:
		observability.RecordError(span, err)
		s.logger.WithErr(err).Debug("StdIOServer shutting down")
		return err
	}
}

func (s *Server) serveLine(ctx context.Context, line []byte) []byte {
	ctx, span := observability.StartSpan(ctx, "StdIOServer.Line")
	defer span.End()
	span.SetAttributes(attribute.Int("request_size", len(line)))

	return s.serveRecovered(ctx, line, span)
}

func (s *Server) serveRecovered(ctx context.Context, line []byte, span trace.Span) (resp []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.RecordError(span, fmt.Errorf("handler panic: %v", r))
			s.logger.WithFields(map[string]interface{}{
				"panic": fmt.Sprint(r),
				"stack": string(debug.Stack()),
			}).Error("Panic recovered in StdIO handler")
			resp = jsonrpc.ErrorResponseFor(line, jsonrpc.NewCustomError("internal error"))
		}
	}()
	return s.dispatcher.Serve(ctx, line)
}
