package jsonrpc

// Request is a JSON-RPC request envelope. P is the params payload type: typically a
// slice for positional parameters or a struct/map for named ones.
//
// Params is a pointer so that "no params" is distinguishable from a zero value;
// a nil Params is omitted from the wire form rather than sent as null.
type Request[P any] struct {
	JSONRPC Version `json:"jsonrpc"`
	Method  string  `json:"method"`
	Params  *P      `json:"params,omitempty"`
	ID      ID      `json:"id"`
}

// NewRequest creates a request without params.
func NewRequest[P any](version Version, id ID, method string) *Request[P] {
	return &Request[P]{
		JSONRPC: version,
		Method:  method,
		ID:      id,
	}
}

// NewV1Request creates a JSON-RPC 1.0 request without params.
func NewV1Request[P any](id ID, method string) *Request[P] {
	return NewRequest[P](V1, id, method)
}

// NewV2Request creates a JSON-RPC 2.0 request without params.
func NewV2Request[P any](id ID, method string) *Request[P] {
	return NewRequest[P](V2, id, method)
}

// SetParams replaces the request params.
func (r *Request[P]) SetParams(params P) {
	r.Params = &params
}

// AppendParam adds one positional parameter, creating the params list on first use.
func AppendParam[T any](r *Request[[]T], value T) {
	if r.Params == nil {
		params := []T{value}
		r.Params = &params
		return
	}
	*r.Params = append(*r.Params, value)
}
