package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire error codes. These values are part of the protocol contract and must not change.
const (
	CodeIOFailure        int64 = -32000
	CodeTransportFailure int64 = -32001
	CodeSerdeFailure     int64 = -32002
	CodeCustomError      int64 = -32003
	CodeInvalidVersion   int64 = -32600
	CodeMethodNotFound   int64 = -32601
	CodeInvalidParams    int64 = -32602
)

// ErrorKind classifies an Error.
type ErrorKind int

const (
	KindIO ErrorKind = iota + 1
	KindTransport
	KindSerde
	KindInvalidVersion
	KindMethodNotFound
	KindCustom
	KindInvalidParams
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindTransport:
		return "transport"
	case KindSerde:
		return "serde"
	case KindInvalidVersion:
		return "invalid_version"
	case KindMethodNotFound:
		return "method_not_found"
	case KindCustom:
		return "custom"
	case KindInvalidParams:
		return "invalid_params"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ErrMethodNotFound is returned by the Dispatcher when no handler is registered for a method.
var ErrMethodNotFound = &Error{Kind: KindMethodNotFound}

// Error is the internal error type of the package. It is never serialized directly;
// WireError converts it to the {code, message, data} object sent to callers.
type Error struct {
	Kind ErrorKind
	// Text carries the version text, parameter complaint or business message, depending on Kind.
	Text string
	// Data is copied verbatim into WireError.Data when set.
	Data json.RawMessage
	// Err is the underlying failure for IO, transport and serialization kinds.
	Err error
}

// NewIOError wraps a low-level I/O failure.
func NewIOError(err error) *Error {
	return &Error{Kind: KindIO, Err: err}
}

// NewTransportError wraps an HTTP or network transport failure.
func NewTransportError(err error) *Error {
	return &Error{Kind: KindTransport, Err: err}
}

// NewSerdeError wraps a JSON encoding or decoding failure.
func NewSerdeError(err error) *Error {
	return &Error{Kind: KindSerde, Err: err}
}

// NewCustomError reports a business logic failure with a caller supplied message.
func NewCustomError(message string) *Error {
	return &Error{Kind: KindCustom, Text: message}
}

// NewInvalidVersionError reports a jsonrpc field that does not match the expected version.
func NewInvalidVersionError(version string) *Error {
	return &Error{Kind: KindInvalidVersion, Text: version}
}

// NewInvalidParamsError reports missing or malformed method parameters.
func NewInvalidParamsError(reason string) *Error {
	return &Error{Kind: KindInvalidParams, Text: reason}
}

// WithData returns a copy of e that carries data in the wire error object.
// If data cannot be encoded as JSON, e is returned unchanged with a serialization error.
func (e *Error) WithData(data any) (*Error, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return e, NewSerdeError(fmt.Errorf("error data: %w", err))
	}
	cp := *e
	cp.Data = raw
	return &cp, nil
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIO:
		return "io error: " + e.description()
	case KindTransport:
		return "transport error: " + e.description()
	case KindSerde:
		return "serialize/deserialize error: " + e.description()
	case KindInvalidVersion:
		return "invalid json rpc version: " + e.Text
	case KindMethodNotFound:
		return "json rpc method not found"
	case KindCustom:
		return "custom error: " + e.Text
	case KindInvalidParams:
		return "invalid parameters: " + e.Text
	default:
		return e.description()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a payload-free Error of the same kind, so that
// errors.Is(err, ErrMethodNotFound) works on any method-not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Text == "" && t.Err == nil
}

func (e *Error) description() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Text
}

// WireError maps the error to its wire representation.
func (e *Error) WireError() *WireError {
	w := &WireError{Data: e.Data}
	switch e.Kind {
	case KindIO:
		w.Code, w.Message = CodeIOFailure, e.description()
	case KindTransport:
		w.Code, w.Message = CodeTransportFailure, e.description()
	case KindSerde:
		w.Code, w.Message = CodeSerdeFailure, e.description()
	case KindInvalidVersion:
		w.Code, w.Message = CodeInvalidVersion, "Invalid JSON-RPC version: "+e.Text
	case KindMethodNotFound:
		w.Code, w.Message = CodeMethodNotFound, "method not found"
	case KindInvalidParams:
		w.Code, w.Message = CodeInvalidParams, "Invalid parameters: "+e.Text
	default:
		w.Code, w.Message = CodeCustomError, e.description()
	}
	return w
}

// ToWireError converts any error into a wire error object. Errors outside the
// taxonomy are reported as custom errors; a *WireError passes through unchanged.
func ToWireError(err error) *WireError {
	if err == nil {
		return nil
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.WireError()
	}

	var wireErr *WireError
	if errors.As(err, &wireErr) {
		return wireErr
	}

	return &WireError{Code: CodeCustomError, Message: err.Error()}
}

// DuplicateMethodError is reported when two registrations share a method name.
type DuplicateMethodError struct {
	Method string
}

func (e *DuplicateMethodError) Error() string {
	return fmt.Sprintf("duplicate method registered: %s", e.Method)
}

// asSerdeError keeps taxonomy errors raised by custom unmarshalers and wraps everything else.
func asSerdeError(err error) error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewSerdeError(err)
}

// asHandlerError converts a business error into the taxonomy.
func asHandlerError(err error) error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return err
	}
	var wireErr *WireError
	if errors.As(err, &wireErr) {
		return err
	}
	return &Error{Kind: KindCustom, Text: err.Error(), Err: err}
}
