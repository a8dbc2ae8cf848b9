package ingest

import "fmt"

// ConnectionState is the position of the pipeline in its connection cycle.
type ConnectionState int

// Connection states.
const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
	Error
	Reconnecting
)

var stateLabels = [...]string{
	Disconnected: "DISCONNECTED",
	Connecting:   "CONNECTING",
	Connected:    "CONNECTED",
	Error:        "ERROR",
	Reconnecting: "RECONNECTING",
}

func (s ConnectionState) String() string {
	if s < 0 || int(s) >= len(stateLabels) {
		return fmt.Sprintf("ConnectionState(%d)", int(s))
	}
	return stateLabels[s]
}

// MarshalText encodes the state as its label.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Active reports whether a connection is being opened or is open.
func (s ConnectionState) Active() bool {
	return s == Connecting || s == Connected
}
