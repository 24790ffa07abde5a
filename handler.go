package jsonrpc

import (
	"context"
	"fmt"
)

// Handler processes one complete request payload and returns the encoded response.
// A handler decodes the full envelope itself because only it knows its params shape.
// Handlers run concurrently with any number of other invocations, including of the
// same method.
type Handler interface {
	Handle(ctx context.Context, req []byte) ([]byte, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req []byte) ([]byte, error)

func (f HandlerFunc) Handle(ctx context.Context, req []byte) ([]byte, error) {
	return f(ctx, req)
}

// Registration binds a method name to its handler.
type Registration struct {
	Method  string
	Handler Handler

	// err records a construction problem reported when the registry is built.
	err error
}

// NewRegistration creates a registration for an untyped handler.
func NewRegistration(method string, handler Handler) Registration {
	return Registration{Method: method, Handler: handler}
}

func (r Registration) validate() error {
	if r.err != nil {
		return r.err
	}
	if r.Method == "" {
		return fmt.Errorf("method name cannot be empty")
	}
	if r.Handler == nil {
		return fmt.Errorf("handler for method %q cannot be nil", r.Method)
	}
	return nil
}
