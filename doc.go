/*
Package jsonrpc exposes independently defined handlers under a single endpoint through a
JSON-RPC 1.0 / 2.0 envelope, and lets callers invoke them by method name with positional
or named parameters.

# Server side

Handlers are registered explicitly at startup and folded into a read-only route table:

	registry := jsonrpc.NewRegistry(
		jsonrpc.NewArrayMethod(jsonrpc.V2, "addArray",
			func(ctx context.Context, p struct{ A, B int64 }) (int64, error) {
				return p.A + p.B, nil
			}),
		jsonrpc.NewObjectMethod(jsonrpc.V2, "addObj",
			func(ctx context.Context, p struct {
				LHS int64 `json:"lhs"`
				RHS int64 `json:"rhs"`
			}) (int64, error) {
				return p.LHS + p.RHS, nil
			}),
	)

	dispatcher := jsonrpc.NewDispatcher(registry)
	if err := dispatcher.Init(); err != nil {
		log.Fatal(err) // duplicate method names end up here
	}

	body := dispatcher.Serve(ctx, requestBytes)

The dispatcher only peeks at the method field; the matched handler decodes the whole
envelope, checks the jsonrpc version it was registered for, extracts params and wraps the
result in a response carrying the request id.

# Errors

Every failure is an *Error of one kind, mapped to a fixed wire code:

	io failure          -32000
	transport failure   -32001
	serialization       -32002
	custom / business   -32003
	invalid version     -32600
	method not found    -32601
	invalid params      -32602

# Client side

	client := jsonrpc.NewClient("http://localhost:3000/")
	sum, err := jsonrpc.Call[int64](ctx, client, jsonrpc.V2, "addObj", map[string]int64{"lhs": 1, "rhs": 2})
*/
package jsonrpc
