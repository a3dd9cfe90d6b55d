// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/wildforest/ticketsync/internal/app"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/logger"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Session resolves the caller's session, creating one when id is empty,
	// unknown or expired. The boolean reports creation.
	Session(id string) (*service.Session, bool, error)

	// Vocabulary exposes the configured status literals.
	Vocabulary() *ticket.Vocabulary
}

// Server wires HTTP routes for the ticket API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	ticketsHandler    *TicketsHandler
	vocabularyHandler *VocabularyHandler
	sessions          *sessionMiddleware
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		ticketsHandler:    NewTicketsHandler(),
		vocabularyHandler: NewVocabularyHandler(deps),
		sessions:          &sessionMiddleware{deps: deps, logger: logger.Named("api")},
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /api/vocabulary", MetricsMiddleware(s.vocabularyHandler.HandleVocabulary, "vocabulary"))

	mux.HandleFunc("GET /api/tickets", MetricsMiddleware(s.sessions.wrap(s.ticketsHandler.HandleList), "tickets_list"))
	mux.HandleFunc("POST /api/tickets", MetricsMiddleware(s.sessions.wrap(s.ticketsHandler.HandleCreate), "tickets_create"))
	mux.HandleFunc("PUT /api/tickets/{id}/status", MetricsMiddleware(s.sessions.wrap(s.ticketsHandler.HandleUpdateStatus), "tickets_status"))
	mux.HandleFunc("POST /api/tickets/{id}/notes", MetricsMiddleware(s.sessions.wrap(s.ticketsHandler.HandleAppendNote), "tickets_notes"))
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

// writeFailure translates a classified error into its HTTP form. Validation
// and lookup failures carry their reason; remote failures tell the user the
// change did not happen so they can retry.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := ticket.Reason(err)
	switch status {
	case http.StatusBadGateway:
		msg = "the ticket sheet rejected the request: " + msg
	case http.StatusServiceUnavailable:
		msg = "the ticket sheet is unreachable; nothing was changed, please retry"
	case http.StatusInternalServerError:
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ticket.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ticket.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ticket.ErrRemoteUnavailable), errors.Is(err, ErrNoSession):
		return http.StatusServiceUnavailable, "remote_unavailable"
	case errors.Is(err, ticket.ErrRemoteRejected):
		return http.StatusBadGateway, "remote_rejected"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return ticket.WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
