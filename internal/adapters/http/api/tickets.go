package api

import (
	"net/http"
	"strings"

	service "github.com/wildforest/ticketsync/internal/app"
	"github.com/wildforest/ticketsync/internal/domain/view"
)

// TicketsHandler serves the ticket list and the three mutations.
type TicketsHandler struct{}

// NewTicketsHandler creates a new tickets handler.
func NewTicketsHandler() *TicketsHandler {
	return &TicketsHandler{}
}

type statusRequest struct {
	Status string `json:"status"`
}

type noteRequest struct {
	Text string `json:"text"`
}

// HandleList handles GET /api/tickets?status=a,b&staff=x requests.
func (h *TicketsHandler) HandleList(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	q := r.URL.Query()
	f := view.NewFilter(splitValues(q["status"]), splitValues(q["staff"]))
	listing, err := sess.List(r.Context(), f)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// HandleCreate handles POST /api/tickets requests.
func (h *TicketsHandler) HandleCreate(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	const op = "api.create_ticket"
	var in service.CreateInput
	if err := decodeJSON(w, r, op, &in); err != nil {
		writeFailure(w, err)
		return
	}
	rec, err := sess.Create(r.Context(), in)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleUpdateStatus handles PUT /api/tickets/{id}/status requests.
func (h *TicketsHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	const op = "api.update_status"
	var req statusRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if _, err := sess.UpdateStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAppendNote handles POST /api/tickets/{id}/notes requests.
func (h *TicketsHandler) HandleAppendNote(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	const op = "api.append_note"
	var req noteRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if _, err := sess.AppendNote(r.Context(), r.PathValue("id"), req.Text); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// splitValues accepts both repeated parameters and comma separated lists.
func splitValues(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
