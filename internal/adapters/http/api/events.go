package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	repository "github.com/okian/stadu/internal/adapters/repository"
	"github.com/okian/stadu/internal/domain/types"
)

// Page size for GET /events when no limit is given.
const defaultEventsLimit = 50

// EventDependencies reads the processed-event history.
type EventDependencies interface {
	Recent(ctx context.Context, limit int) ([]types.ProcessedEvent, error)
	Event(ctx context.Context, id string) (types.ProcessedEvent, error)
}

// EventsHandler handles processed-event requests.
type EventsHandler struct {
	deps     EventDependencies
	maxLimit int
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies, maxLimit int) *EventsHandler {
	if maxLimit < 1 {
		maxLimit = repository.DefaultCapacity
	}
	return &EventsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleListEvents handles GET /events?limit=N requests. Newest first.
func (h *EventsHandler) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_events"

	n := min(defaultEventsLimit, h.maxLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if v > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		n = v
	}

	list, err := h.deps.Recent(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGetEvent handles GET /events/{id} requests.
func (h *EventsHandler) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"

	pe, err := h.deps.Event(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	default:
		writeJSON(w, http.StatusOK, pe)
	}
}
