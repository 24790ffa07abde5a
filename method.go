package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ParamsMode selects how a method expects its params to be shaped.
type ParamsMode int

const (
	// PositionalParams expects a JSON array, e.g. {"params": [10, 20]}.
	PositionalParams ParamsMode = iota
	// NamedParams expects a JSON object, e.g. {"params": {"lhs": 10, "rhs": 20}}.
	NamedParams
)

func (m ParamsMode) String() string {
	if m == NamedParams {
		return "object"
	}
	return "array"
}

// NoParams is the params type of a method that takes no arguments.
type NoParams struct{}

// MethodFunc is the business logic of a typed method.
type MethodFunc[P, R any] func(ctx context.Context, params P) (R, error)

type methodConfig struct {
	schema    *gojsonschema.Schema
	schemaErr error
}

// MethodOption configures a typed method.
type MethodOption func(*methodConfig)

// UseParamsSchema validates params against a JSON Schema document before decoding.
// Validation failures are reported as invalid parameters.
func UseParamsSchema(schema string) MethodOption {
	return func(c *methodConfig) {
		s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
		if err != nil {
			c.schemaErr = fmt.Errorf("invalid params schema: %w", err)
			return
		}
		c.schema = s
	}
}

// NewArrayMethod registers fn under name for the given protocol version with
// positional params. When P is a struct, the array elements are assigned to its
// exported fields in declaration order; any other P is decoded from the whole array.
func NewArrayMethod[P, R any](version Version, name string, fn MethodFunc[P, R], opts ...MethodOption) Registration {
	return newMethod(version, name, PositionalParams, fn, opts)
}

// NewObjectMethod registers fn under name for the given protocol version with
// named params decoded into P.
func NewObjectMethod[P, R any](version Version, name string, fn MethodFunc[P, R], opts ...MethodOption) Registration {
	return newMethod(version, name, NamedParams, fn, opts)
}

type method[P, R any] struct {
	name        string
	version     Version
	mode        ParamsMode
	fn          MethodFunc[P, R]
	schema      *gojsonschema.Schema
	takesParams bool
}

func newMethod[P, R any](version Version, name string, mode ParamsMode, fn MethodFunc[P, R], opts []MethodOption) Registration {
	cfg := &methodConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &method[P, R]{
		name:        name,
		version:     version,
		mode:        mode,
		fn:          fn,
		schema:      cfg.schema,
		takesParams: hasParams(reflect.TypeFor[P]()),
	}

	reg := Registration{Method: name, Handler: m, err: cfg.schemaErr}
	switch {
	case fn == nil:
		reg.err = fmt.Errorf("method %q has a nil function", name)
	case !version.Valid():
		reg.err = fmt.Errorf("method %q has an unsupported protocol version", name)
	}
	return reg
}

// inboundRequest keeps jsonrpc as plain text so that an unsupported version is
// reported as such instead of as a decoding failure.
type inboundRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      ID              `json:"id"`
}

func (m *method[P, R]) Handle(ctx context.Context, raw []byte) ([]byte, error) {
	var req inboundRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, asSerdeError(err)
	}
	if req.ID.IsZero() {
		return nil, NewSerdeError(errors.New("missing field `id`"))
	}
	if req.JSONRPC != m.version.String() {
		return nil, NewInvalidVersionError(req.JSONRPC)
	}

	params, err := m.decodeParams(req.Params)
	if err != nil {
		return nil, err
	}

	result, err := m.fn(ctx, params)
	if err != nil {
		return nil, asHandlerError(err)
	}

	out, err := json.Marshal(NewResultResponse(m.version, req.ID, result))
	if err != nil {
		return nil, NewSerdeError(err)
	}
	return out, nil
}

func (m *method[P, R]) decodeParams(raw json.RawMessage) (P, error) {
	var params P
	if !m.takesParams {
		return params, nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return params, NewInvalidParamsError(fmt.Sprintf("method '%s' requires %s parameters", m.name, m.mode))
	}

	want := byte('[')
	if m.mode == NamedParams {
		want = '{'
	}
	if raw[0] != want {
		return params, NewInvalidParamsError(fmt.Sprintf("method '%s' expects %s parameters", m.name, m.mode))
	}

	if m.schema != nil {
		if err := validateParams(m.schema, raw); err != nil {
			return params, err
		}
	}

	if m.mode == PositionalParams {
		return params, decodePositional(raw, &params)
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return params, asSerdeError(err)
	}
	return params, nil
}

func validateParams(schema *gojsonschema.Schema, raw json.RawMessage) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return NewSerdeError(err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return NewInvalidParamsError(strings.Join(problems, "; "))
}

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

// decodePositional fills dst, a pointer, from a JSON array.
func decodePositional(raw json.RawMessage, dst any) error {
	v := reflect.ValueOf(dst).Elem()
	if v.Kind() != reflect.Struct || reflect.PointerTo(v.Type()).Implements(unmarshalerType) {
		if err := json.Unmarshal(raw, dst); err != nil {
			return asSerdeError(err)
		}
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return asSerdeError(err)
	}

	fields := positionalFields(v.Type())
	if len(elems) != len(fields) {
		return NewInvalidParamsError(fmt.Sprintf("expected %d positional parameters, got %d", len(fields), len(elems)))
	}

	for i, idx := range fields {
		if err := json.Unmarshal(elems[i], v.Field(idx).Addr().Interface()); err != nil {
			return NewSerdeError(fmt.Errorf("parameter %d: %w", i, err))
		}
	}
	return nil
}

func positionalFields(t reflect.Type) []int {
	var fields []int
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("json") == "-" {
			continue
		}
		fields = append(fields, i)
	}
	return fields
}

// hasParams reports whether a params type declares at least one argument.
func hasParams(t reflect.Type) bool {
	return t.Kind() != reflect.Struct || t.NumField() > 0
}
