package api

import "net/http"

// StadiumHandler serves the occupancy snapshot.
type StadiumHandler struct {
	deps StadiumDependencies
}

// NewStadiumHandler creates a new stadium handler.
func NewStadiumHandler(deps StadiumDependencies) *StadiumHandler {
	return &StadiumHandler{deps: deps}
}

// HandleGetStadium handles GET /stadium requests.
func (h *StadiumHandler) HandleGetStadium(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Snapshot(r.Context()))
}
