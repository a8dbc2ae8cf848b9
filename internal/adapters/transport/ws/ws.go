// Package ws dials the entry-event feed over a WebSocket.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/stadu/internal/ingest"
)

// Default dialer configuration constants.
const (
	defaultHandshakeTimeout = 5 * time.Second
	closeWriteTimeout       = time.Second
	closeReason             = "Client disconnect"
)

// ErrDialFailed wraps every handshake failure.
var ErrDialFailed = errors.New("websocket dial failed")

// Transport implements ingest.Transport with gorilla/websocket.
type Transport struct {
	url         string
	dialer      websocket.Dialer
	header      http.Header
	readTimeout time.Duration
}

// Option applies a configuration option to the Transport.
type Option func(*Transport)

// WithHandshakeTimeout bounds the opening handshake.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.dialer.HandshakeTimeout = d
		}
	}
}

// WithReadTimeout sets a deadline for each read. Zero waits forever.
func WithReadTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d >= 0 {
			t.readTimeout = d
		}
	}
}

// WithHeader adds request headers sent during the handshake.
func WithHeader(h http.Header) Option {
	return func(t *Transport) { t.header = h }
}

// New creates a transport for the given ws:// or wss:// URL.
func New(url string, opts ...Option) *Transport {
	t := &Transport{
		url:    url,
		dialer: websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout, Proxy: http.ProxyFromEnvironment},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// URL returns the feed address.
func (t *Transport) URL() string { return t.url }

// Dial opens the socket.
func (t *Transport) Dial(ctx context.Context) (ingest.Conn, error) {
	c, resp, err := t.dialer.DialContext(ctx, t.url, t.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDialFailed, t.url, err)
	}
	return &conn{c: c, readTimeout: t.readTimeout}, nil
}

type conn struct {
	c           *websocket.Conn
	readTimeout time.Duration
	closeOnce   sync.Once
	closeErr    error
}

func (c *conn) ReadMessage() ([]byte, error) {
	for {
		if c.readTimeout > 0 {
			_ = c.c.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		kind, data, err := c.c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("%w: %w", ingest.ErrConnClosed, err)
			}
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a normal closure frame and releases the socket.
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, closeReason)
		_ = c.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
		c.closeErr = c.c.Close()
	})
	return c.closeErr
}
