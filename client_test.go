package jsonrpc

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEndpoint(t *testing.T, regs ...Registration) *httptest.Server {
	t.Helper()
	d := newTestDispatcher(t, regs...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		w.Header().Set("Content-Type", DefaultContentType)
		_, _ = w.Write(d.Serve(r.Context(), body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Call(t *testing.T) {
	srv := newTestEndpoint(t,
		NewObjectMethod(V2, "addObj", addMethod),
		NewArrayMethod(V1, "addArray", func(ctx context.Context, p struct{ A, B int64 }) (int64, error) {
			return p.A + p.B, nil
		}),
	)
	client := NewClient(srv.URL)

	sum, err := Call[int64](context.Background(), client, V2, "addObj", addParams{LHS: 10, RHS: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(30), sum)

	resp, err := SendPositional[int64](context.Background(), client, V1, "addArray", 1, 2)
	require.NoError(t, err)
	require.NoError(t, resp.Err())
	assert.Equal(t, V1, resp.JSONRPC)
	assert.Equal(t, int64(3), *resp.Result)
}

func TestClient_ErrorResponse(t *testing.T) {
	srv := newTestEndpoint(t)
	client := NewClient(srv.URL)

	resp, err := Send[string](context.Background(), client, V2, "ping", nil)
	require.NoError(t, err)
	assert.Nil(t, resp.Result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeMethodNotFound, resp.Error.Code)

	_, err = Call[string](context.Background(), client, V2, "ping", nil)
	var wireErr *WireError
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, "method not found", wireErr.Message)
}

func TestClient_SendsConfiguredHeadersAndIDs(t *testing.T) {
	var gotContentType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":"pong","id":1}`))
	}))
	defer srv.Close()

	ids := NewIDGenerator()
	client := NewClient(srv.URL, UseContentType("application/json-rpc"), UseIDGenerator(ids))

	out, err := Call[string](context.Background(), client, V2, "ping", nil)
	require.NoError(t, err)
	assert.Equal(t, "pong", out)
	assert.Equal(t, "application/json-rpc", gotContentType)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"ping","id":1}`, string(gotBody))

	_, err = Call[string](context.Background(), client, V2, "ping", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"ping","id":2}`, string(gotBody))
}

func TestClient_NilParamsOmitted(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","result":"pong","id":1}`))
	}))
	defer srv.Close()

	var nilSlice []int
	var nilMap map[string]int
	var nilPtr *addParams

	for _, params := range []any{nil, nilSlice, nilMap, nilPtr} {
		_, err := Send[string](context.Background(), NewClient(srv.URL, UseIDGenerator(NewIDGenerator())), V2, "ping", params)
		require.NoError(t, err)

		var fields map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(gotBody, &fields))
		assert.NotContains(t, fields, "params", "%T", params)
	}

	_, err := Send[string](context.Background(), NewClient(srv.URL), V2, "ping", []int{})
	require.NoError(t, err)
	assert.Contains(t, string(gotBody), `"params":[]`)
}

func TestClient_Failures(t *testing.T) {
	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer garbage.Close()

	_, err := Send[string](context.Background(), NewClient(garbage.URL), V2, "ping", nil)
	requireKind(t, err, KindSerde)

	closed := httptest.NewServer(http.NotFoundHandler())
	closed.Close()
	_, err = Send[string](context.Background(), NewClient(closed.URL), V2, "ping", nil)
	requireKind(t, err, KindTransport)
	assert.Equal(t, CodeTransportFailure, ToWireError(err).Code)

	_, err = Send[string](context.Background(), NewClient("://bad url"), V2, "ping", nil)
	requireKind(t, err, KindTransport)

	_, err = Send[string](context.Background(), NewClient(garbage.URL), V2, "ping", func() {})
	requireKind(t, err, KindSerde)
}
