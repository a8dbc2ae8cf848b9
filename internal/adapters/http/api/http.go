// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/stadu/internal/domain/model"
	"github.com/okian/stadu/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StadiumDependencies
	EventDependencies
	EntryDependencies
	ConnectionDependencies
	StatsProvider
}

// StadiumDependencies reads the current stadium snapshot.
type StadiumDependencies interface {
	Snapshot(ctx context.Context) types.Stadium
}

// EntryDependencies decides an entry synchronously.
type EntryDependencies interface {
	Submit(ctx context.Context, ev model.EntryEvent) types.ProcessedEvent
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	stadiumHandler    *StadiumHandler
	eventsHandler     *EventsHandler
	entriesHandler    *EntriesHandler
	connectionHandler *ConnectionHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxEventsLimit int) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		stadiumHandler:    NewStadiumHandler(deps),
		eventsHandler:     NewEventsHandler(deps, maxEventsLimit),
		entriesHandler:    NewEntriesHandler(deps),
		connectionHandler: NewConnectionHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /stadium", MetricsMiddleware(s.stadiumHandler.HandleGetStadium, "stadium"))
	mux.HandleFunc("GET /events", MetricsMiddleware(s.eventsHandler.HandleListEvents, "events"))
	mux.HandleFunc("GET /events/{id}", MetricsMiddleware(s.eventsHandler.HandleGetEvent, "event"))
	mux.HandleFunc("POST /entries", MetricsMiddleware(s.entriesHandler.HandlePostEntry, "entries"))
	mux.HandleFunc("GET /connection", MetricsMiddleware(s.connectionHandler.HandleGetConnection, "connection"))
	mux.HandleFunc("POST /connection/connect", MetricsMiddleware(s.connectionHandler.HandleConnect, "connect"))
	mux.HandleFunc("POST /connection/disconnect", MetricsMiddleware(s.connectionHandler.HandleDisconnect, "disconnect"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
