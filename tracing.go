package jsonrpc

import (
	"context"
	"time"

	"github.com/shaharia-lab/jsonrpc/observability"
	"go.opentelemetry.io/otel/attribute"
)

// TracingHandler decorates a Handler with an OpenTelemetry span per call.
type TracingHandler struct {
	method  string
	handler Handler
}

// NewTracingHandler wraps handler, labelling spans with method.
func NewTracingHandler(method string, handler Handler) *TracingHandler {
	return &TracingHandler{
		method:  method,
		handler: handler,
	}
}

// Handle implements Handler with added tracing
func (t *TracingHandler) Handle(ctx context.Context, req []byte) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "Handler.Handle")
	defer span.End()

	startTime := time.Now()
	span.SetAttributes(
		attribute.String("rpc.method", t.method),
		attribute.Int("request_size", len(req)),
	)

	resp, err := t.handler.Handle(ctx, req)
	span.SetAttributes(attribute.Float64("handle_time", time.Since(startTime).Seconds()))
	if err != nil {
		span.SetAttributes(attribute.Int64("rpc.error_code", ToWireError(err).Code))
		observability.RecordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("response_size", len(resp)))
	return resp, nil
}

// Traced returns reg with its handler wrapped in a TracingHandler.
func Traced(reg Registration) Registration {
	if reg.Handler != nil {
		reg.Handler = NewTracingHandler(reg.Method, reg.Handler)
	}
	return reg
}
