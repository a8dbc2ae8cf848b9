package ingest

import "errors"

// Sentinel errors.
var (
	// ErrConnClosed is returned by Conn.ReadMessage when the peer closed the
	// stream cleanly. Any other read error counts as a failure.
	ErrConnClosed = errors.New("connection closed")

	// ErrDecode marks an inbound payload that is not a valid entry event.
	ErrDecode = errors.New("decode entry event")
)
