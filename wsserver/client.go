package wsserver

import (
	"context"
	"sync"

	"github.com/coder/websocket"
	"github.com/shaharia-lab/jsonrpc"
)

// Client exchanges JSON-RPC messages with a Handler over one WebSocket connection.
// Calls are serialized so every request is paired with the next response.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to the WebSocket endpoint at url.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, jsonrpc.NewTransportError(err)
	}
	return &Client{conn: conn}, nil
}

// RoundTrip sends one request payload and returns the response payload.
func (c *Client) RoundTrip(ctx context.Context, req []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.Write(ctx, websocket.MessageText, req); err != nil {
		return nil, jsonrpc.NewTransportError(err)
	}
	_, resp, err := c.conn.Read(ctx)
	if err != nil {
		return nil, jsonrpc.NewTransportError(err)
	}
	return resp, nil
}

// Close closes the connection normally.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
