package api

import (
	"net/http"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
)

// VocabularyProvider exposes the configured status literals.
type VocabularyProvider interface {
	Vocabulary() *ticket.Vocabulary
}

// VocabularyHandler tells the UI which statuses it may offer.
type VocabularyHandler struct {
	provider VocabularyProvider
}

// NewVocabularyHandler creates a new vocabulary handler.
func NewVocabularyHandler(provider VocabularyProvider) *VocabularyHandler {
	return &VocabularyHandler{provider: provider}
}

type statusKind struct {
	Kind      string   `json:"kind"`
	Canonical string   `json:"canonical"`
	Literals  []string `json:"literals"`
}

type vocabularyResponse struct {
	Statuses   []statusKind `json:"statuses"`
	Choices    []string     `json:"choices"`
	Default    string       `json:"default"`
	Unassigned string       `json:"unassigned"`
}

// HandleVocabulary handles GET /api/vocabulary requests.
func (h *VocabularyHandler) HandleVocabulary(w http.ResponseWriter, r *http.Request) {
	v := h.provider.Vocabulary()
	resp := vocabularyResponse{
		Statuses:   make([]statusKind, 0, len(ticket.Kinds)),
		Choices:    v.Choices(),
		Default:    v.Canonical(ticket.KindUnread),
		Unassigned: ticket.Unassigned,
	}
	for _, k := range ticket.Kinds {
		lits := v.Literals(k)
		if len(lits) == 0 {
			continue
		}
		resp.Statuses = append(resp.Statuses, statusKind{Kind: k.String(), Canonical: lits[0], Literals: lits})
	}
	writeJSON(w, http.StatusOK, resp)
}
