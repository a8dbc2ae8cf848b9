package api

import (
	"io"
	"net/http"

	"github.com/okian/stadu/internal/ingest"
)

// maxEntryBody caps POST /entries payloads.
const maxEntryBody = 4 << 10

// EntriesHandler decides entries posted directly over HTTP.
type EntriesHandler struct {
	deps EntryDependencies
}

// NewEntriesHandler creates a new entries handler.
func NewEntriesHandler(deps EntryDependencies) *EntriesHandler {
	return &EntriesHandler{deps: deps}
}

// HandlePostEntry handles POST /entries. The body uses the feed wire format;
// the response is the resulting processed event.
func (h *EntriesHandler) HandlePostEntry(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_entry"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEntryBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	ev, err := ingest.DecodeEntryEvent(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Submit(r.Context(), ev))
}
