package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"reflect"

	"github.com/shaharia-lab/jsonrpc/observability"
	"go.opentelemetry.io/otel/attribute"
)

// DefaultContentType is the Content-Type used for requests unless overridden.
const DefaultContentType = "application/json"

// Client sends JSON-RPC requests over HTTP POST.
type Client struct {
	url         string
	contentType string
	httpClient  *http.Client
	logger      Logger
	ids         *IDGenerator
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// UseHTTPClient sets the underlying HTTP client.
func UseHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// UseContentType overrides the request Content-Type header.
func UseContentType(contentType string) ClientOption {
	return func(c *Client) {
		c.contentType = contentType
	}
}

// UseClientLogger sets the client logger. Request and response bodies are logged at debug level.
func UseClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// UseIDGenerator sets the source of request ids. The process-wide generator is used by default.
func UseIDGenerator(ids *IDGenerator) ClientOption {
	return func(c *Client) {
		c.ids = ids
	}
}

// NewClient creates a client for the endpoint at url.
func NewClient(url string, opts ...ClientOption) *Client {
	c := &Client{
		url:         url,
		contentType: DefaultContentType,
		httpClient:  http.DefaultClient,
		logger:      NewNullLogger(),
		ids:         defaultIDs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send serializes params as the request params and returns the decoded response.
// A nil params omits the field; slices are sent as positional params and structs
// or maps as named params. A response carrying an error object is not a Go error:
// use Response.Err to inspect it.
func Send[R any](ctx context.Context, c *Client, version Version, method string, params any) (*Response[R], error) {
	req := NewRequest[any](version, c.ids.NextNumber(), method)
	if !isNilParams(params) {
		req.SetParams(params)
	}
	return roundTrip[R](ctx, c, req)
}

// isNilParams reports whether params is nil, including a typed nil slice, map or pointer.
func isNilParams(params any) bool {
	if params == nil {
		return true
	}
	switch v := reflect.ValueOf(params); v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// SendPositional sends args as positional params.
func SendPositional[R any](ctx context.Context, c *Client, version Version, method string, args ...any) (*Response[R], error) {
	req := NewRequest[[]any](version, c.ids.NextNumber(), method)
	for _, arg := range args {
		AppendParam(req, arg)
	}
	return roundTrip[R](ctx, c, req)
}

// Call is Send that returns the result directly, or the response error object as a *WireError.
func Call[R any](ctx context.Context, c *Client, version Version, method string, params any) (R, error) {
	var zero R
	resp, err := Send[R](ctx, c, version, method, params)
	if err != nil {
		return zero, err
	}
	if err := resp.Err(); err != nil {
		return zero, err
	}
	if resp.Result == nil {
		return zero, nil
	}
	return *resp.Result, nil
}

func roundTrip[R, P any](ctx context.Context, c *Client, req *Request[P]) (*Response[R], error) {
	ctx, span := observability.StartSpan(ctx, "Client.Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("rpc.method", req.Method),
		attribute.String("rpc.jsonrpc", req.JSONRPC.String()),
		attribute.String("rpc.id", req.ID.String()),
	)

	logger := c.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"method": req.Method,
		"id":     req.ID.String(),
	})

	body, err := json.Marshal(req)
	if err != nil {
		err = asSerdeError(err)
		observability.RecordError(span, err)
		return nil, err
	}
	logger.Debug("jsonrpc request body: ", string(body))

	respBody, err := c.post(ctx, body)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	logger.Debug("jsonrpc response body: ", string(respBody))

	var resp Response[R]
	if err := json.Unmarshal(respBody, &resp); err != nil {
		err = asSerdeError(err)
		observability.RecordError(span, err)
		return nil, err
	}
	return &resp, nil
}

// post delivers one complete request body and returns the complete response body.
func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, NewTransportError(err)
	}
	httpReq.Header.Set("Content-Type", c.contentType)
	httpReq.Header.Set("Accept", DefaultContentType)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewTransportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewIOError(err)
	}
	return data, nil
}
