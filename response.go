package jsonrpc

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Response is a JSON-RPC response envelope. Exactly one of Result and Error is set
// on responses produced by this package.
type Response[R any] struct {
	JSONRPC Version    `json:"jsonrpc"`
	Result  *R         `json:"result,omitempty"`
	Error   *WireError `json:"error,omitempty"`
	ID      ID         `json:"id"`
}

// WireError is the {code, message, data} error object of a response.
type WireError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *WireError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewResultResponse creates a successful response.
func NewResultResponse[R any](version Version, id ID, result R) *Response[R] {
	return &Response[R]{
		JSONRPC: version,
		Result:  &result,
		ID:      id,
	}
}

// NewErrorResponse creates a failed response, mapping err through ToWireError.
func NewErrorResponse[R any](version Version, id ID, err error) *Response[R] {
	return &Response[R]{
		JSONRPC: version,
		Error:   ToWireError(err),
		ID:      id,
	}
}

// Err returns the response error object as a Go error, or nil on success.
func (r *Response[R]) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

// errorEnvelope echoes the raw id and jsonrpc of the inbound payload, which may not
// be representable as ID or Version (for example an unsupported version text).
type errorEnvelope struct {
	JSONRPC json.RawMessage `json:"jsonrpc"`
	Error   *WireError      `json:"error"`
	ID      json.RawMessage `json:"id"`
}

var fallbackErrorResponse = []byte(`{"jsonrpc":null,"error":{"code":-32002,"message":"failed to encode error response"},"id":null}`)

// ErrorResponseFor encodes err as a response to the request payload req. The id and
// jsonrpc values are copied from req when it is a JSON object that carries them;
// otherwise both are null.
func ErrorResponseFor(req []byte, err error) []byte {
	env := errorEnvelope{Error: ToWireError(err)}
	if env.Error == nil {
		env.Error = &WireError{Code: CodeCustomError, Message: "unknown error"}
	}

	if gjson.ValidBytes(req) {
		if root := gjson.ParseBytes(req); root.IsObject() {
			if v := root.Get("jsonrpc"); v.Exists() {
				env.JSONRPC = json.RawMessage(v.Raw)
			}
			if v := root.Get("id"); v.Exists() {
				env.ID = json.RawMessage(v.Raw)
			}
		}
	}

	out, marshalErr := json.Marshal(env)
	if marshalErr != nil {
		return fallbackErrorResponse
	}
	return out
}
