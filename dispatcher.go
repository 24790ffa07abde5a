package jsonrpc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shaharia-lab/jsonrpc/observability"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
)

// Dispatcher routes raw request payloads to registered handlers by method name.
type Dispatcher struct {
	registry *Registry
	logger   Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// UseDispatcherLogger sets the dispatcher logger.
func UseDispatcherLogger(logger Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		logger:   NewNullLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init builds the route table and logs the registered methods. Call it at startup;
// an error (such as a duplicate method name) must abort the process.
func (d *Dispatcher) Init() error {
	if err := d.registry.Build(); err != nil {
		d.logger.WithErr(err).Error("RPC service initialization failed")
		return err
	}

	methods := d.registry.Methods()
	d.logger.Info(fmt.Sprintf("RPC service initialized with %d methods", len(methods)))
	for _, method := range methods {
		d.logger.Info("  - " + method)
	}
	return nil
}

// Methods returns the registered method names in sorted order.
func (d *Dispatcher) Methods() []string {
	return d.registry.Methods()
}

// Dispatch reads only the method field of req, then hands the untouched payload to
// the matching handler and returns its response verbatim.
//
// If Init was not called, the route table is built on first use; a broken table
// then panics because it is a static configuration bug, not a request error.
func (d *Dispatcher) Dispatch(ctx context.Context, req []byte) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "Dispatcher.Dispatch")
	defer span.End()

	method, err := peekMethod(req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("rpc.method", method))

	if err := d.registry.Build(); err != nil {
		panic(fmt.Sprintf("jsonrpc: route table: %v", err))
	}

	handler, ok := d.registry.Lookup(method)
	if !ok {
		d.logger.WithFields(map[string]interface{}{"method": method}).Debug("Method not found")
		observability.RecordError(span, ErrMethodNotFound)
		return nil, ErrMethodNotFound
	}

	d.logger.WithFields(map[string]interface{}{"method": method}).Debug("Dispatching request")
	resp, err := handler.Handle(ctx, req)
	if err != nil {
		span.SetAttributes(attribute.Int64("rpc.error_code", ToWireError(err).Code))
		observability.RecordError(span, err)
		return nil, err
	}
	return resp, nil
}

// Serve is Dispatch for transports: failures are encoded as error responses that
// echo the request id and jsonrpc values, so the result is always a response body.
func (d *Dispatcher) Serve(ctx context.Context, req []byte) []byte {
	resp, err := d.Dispatch(ctx, req)
	if err != nil {
		d.logger.WithErr(err).Debug("Request failed")
		return ErrorResponseFor(req, err)
	}
	return resp
}

func peekMethod(req []byte) (string, error) {
	if !gjson.ValidBytes(req) {
		return "", NewSerdeError(errors.New("request body is not valid JSON"))
	}

	root := gjson.ParseBytes(req)
	if !root.IsObject() {
		return "", NewSerdeError(errors.New("request must be a JSON object"))
	}

	// Handlers decode with encoding/json, which matches keys case-insensitively
	// and keeps the last duplicate, so any second spelling of method is refused.
	var method gjson.Result
	seen := 0
	root.ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.Str, "method") {
			seen++
			if key.Str == "method" {
				method = value
			}
		}
		return seen < 2
	})
	if seen > 1 {
		return "", NewSerdeError(errors.New("duplicate field `method`"))
	}
	if !method.Exists() {
		return "", NewSerdeError(errors.New("missing field `method`"))
	}
	if method.Type != gjson.String {
		return "", NewSerdeError(fmt.Errorf("invalid type for field `method`: %s", method.Type))
	}
	return method.Str, nil
}
