// Package client dials the event relay the way the dashboard and the
// song-request module do.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hammer-live/event-bridge/pkg/peers"
)

// Event is one JSON frame received from the relay.
type Event map[string]any

func (e Event) Type() string {
	s, _ := e["type"].(string)
	return s
}

func (e Event) Str(key string) string {
	s, _ := e[key].(string)
	return s
}

type Client struct {
	conn *websocket.Conn
}

type options struct {
	dialer *websocket.Dialer
	header http.Header
}

type Option func(*options)

// WithRawSubprotocol sends header verbatim as the handshake value instead of
// building it from role and token.
func WithRawSubprotocol(header string) Option {
	return func(o *options) {
		o.header = http.Header{}
		o.header.Set("Sec-WebSocket-Protocol", header)
	}
}

func WithDialer(d *websocket.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// Subprotocol builds the "role,password" handshake value.
func Subprotocol(role peers.Role, token string) string {
	roleToken := ""
	if role.IsServer() {
		roleToken = peers.ServerRoleToken
	}
	return roleToken + "," + token
}

// Dial connects to url as role, presenting token. The relay may still refuse
// the connection after the upgrade; that shows up as a close error on the
// first read.
func Dial(ctx context.Context, url string, role peers.Role, token string, opts ...Option) (*Client, error) {
	o := options{dialer: &websocket.Dialer{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
	}}
	WithRawSubprotocol(Subprotocol(role, token))(&o)
	for _, opt := range opts {
		opt(&o)
	}
	conn, resp, err := o.dialer.DialContext(ctx, url, o.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", url, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// ReadEvent waits up to timeout for the next frame. A zero timeout waits
// indefinitely.
func (c *Client) ReadEvent(timeout time.Duration) (Event, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

// Send writes v as a JSON text frame.
func (c *Client) Send(v any) error {
	return c.conn.WriteJSON(v)
}

// SendText writes s unmodified.
func (c *Client) SendText(s string) error {
	return c.conn.WriteMessage(websocket.TextMessage, []byte(s))
}

// Subprotocol reports the value the relay negotiated.
func (c *Client) Subprotocol() string {
	return c.conn.Subprotocol()
}

// Close sends a normal close frame and closes the socket.
func (c *Client) Close() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}
