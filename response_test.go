package jsonrpc

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponse_ResultOnly(t *testing.T) {
	resp := NewResultResponse(V2, NewNumberID(2), "hi")

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":"hi","id":2}`, string(data))
	assert.NotContains(t, string(data), "error")
	assert.NoError(t, resp.Err())
}

func TestResponse_NilResultIsStillPresent(t *testing.T) {
	resp := NewResultResponse[any](V2, NewNumberID(2), nil)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","result":null,"id":2}`, string(data))
}

func TestResponse_ErrorOnly(t *testing.T) {
	resp := NewErrorResponse[string](V1, NewStringID("a"), NewInvalidParamsError("missing lhs"))

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"1.0","error":{"code":-32602,"message":"Invalid parameters: missing lhs"},"id":"a"}`, string(data))
	assert.NotContains(t, string(data), "result")
	assert.NotContains(t, string(data), "data")

	var wireErr *WireError
	require.ErrorAs(t, resp.Err(), &wireErr)
	assert.Equal(t, CodeInvalidParams, wireErr.Code)
}

func TestResponse_ErrorData(t *testing.T) {
	withData, err := NewCustomError("quota exceeded").WithData(map[string]int{"limit": 3})
	require.NoError(t, err)
	resp := NewErrorResponse[string](V2, NewNumberID(1), withData)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","error":{"code":-32003,"message":"quota exceeded","data":{"limit":3}},"id":1}`, string(data))
}

func TestResponse_RoundTrip(t *testing.T) {
	for _, version := range []Version{V1, V2} {
		ok := NewResultResponse(version, NewNumberID(8), []int{1, 2, 3})
		data, err := json.Marshal(ok)
		require.NoError(t, err)

		var backOK Response[[]int]
		require.NoError(t, json.Unmarshal(data, &backOK))
		assert.Equal(t, *ok, backOK)

		failed := NewErrorResponse[[]int](version, NewStringID("id-8"), ErrMethodNotFound)
		data, err = json.Marshal(failed)
		require.NoError(t, err)

		var backFailed Response[[]int]
		require.NoError(t, json.Unmarshal(data, &backFailed))
		assert.Equal(t, *failed, backFailed)
	}
}

func TestErrorResponseFor(t *testing.T) {
	tests := []struct {
		name string
		req  string
		err  error
		want string
	}{
		{
			name: "method not found echoes id and version",
			req:  `{"jsonrpc":"2.0","method":"ping","id":1}`,
			err:  ErrMethodNotFound,
			want: `{"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found"},"id":1}`,
		},
		{
			name: "unsupported version text is echoed",
			req:  `{"jsonrpc":"9.9","method":"echo","id":"abc"}`,
			err:  NewInvalidVersionError("9.9"),
			want: `{"jsonrpc":"9.9","error":{"code":-32600,"message":"Invalid JSON-RPC version: 9.9"},"id":"abc"}`,
		},
		{
			name: "malformed payload",
			req:  `{"jsonrpc":"2.0",`,
			err:  NewSerdeError(errors.New("unexpected end of JSON input")),
			want: `{"jsonrpc":null,"error":{"code":-32002,"message":"unexpected end of JSON input"},"id":null}`,
		},
		{
			name: "non object payload",
			req:  `[1,2,3]`,
			err:  NewSerdeError(errors.New("request must be a JSON object")),
			want: `{"jsonrpc":null,"error":{"code":-32002,"message":"request must be a JSON object"},"id":null}`,
		},
		{
			name: "missing id",
			req:  `{"jsonrpc":"2.0","method":"x"}`,
			err:  NewCustomError("boom"),
			want: `{"jsonrpc":"2.0","error":{"code":-32003,"message":"boom"},"id":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(ErrorResponseFor([]byte(tt.req), tt.err)))
		})
	}
}
