package api

import (
	"context"
	"net/http"

	"github.com/okian/stadu/internal/domain/types"
)

// ConnectionDependencies controls the feed connection.
type ConnectionDependencies interface {
	Connection(ctx context.Context) types.Connection
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
}

// ConnectionHandler exposes the feed state and controls.
type ConnectionHandler struct {
	deps ConnectionDependencies
}

// NewConnectionHandler creates a new connection handler.
func NewConnectionHandler(deps ConnectionDependencies) *ConnectionHandler {
	return &ConnectionHandler{deps: deps}
}

// HandleGetConnection handles GET /connection.
func (h *ConnectionHandler) HandleGetConnection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Connection(r.Context()))
}

// HandleConnect handles POST /connection/connect. Connecting while already
// connecting or connected is a no-op.
func (h *ConnectionHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	const op = "api.connect"
	if err := h.deps.Connect(r.Context()); err != nil {
		writeError(w, http.StatusConflict, "connect_failed", WrapKind(op, ErrConflict, err))
		return
	}
	writeJSON(w, http.StatusAccepted, h.deps.Connection(r.Context()))
}

// HandleDisconnect handles POST /connection/disconnect.
func (h *ConnectionHandler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	const op = "api.disconnect"
	if err := h.deps.Disconnect(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Connection(r.Context()))
}
