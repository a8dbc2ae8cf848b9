package ingest

import "context"

// Transport opens the inbound event stream.
type Transport interface {
	Dial(ctx context.Context) (Conn, error)
}

// Conn is an open stream of messages. ReadMessage blocks until a message
// arrives or the stream ends; Close unblocks a pending read.
type Conn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context) (Conn, error)

// Dial calls f.
func (f TransportFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }
