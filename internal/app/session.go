package service

import (
	"context"
	"time"

	"github.com/wildforest/ticketsync/internal/adapters/cache"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/internal/domain/view"
)

// Listing is what a session renders for one list request.
type Listing struct {
	Tickets   ticket.Collection `json:"tickets"`
	Metrics   view.Metrics      `json:"metrics"`
	Options   view.Options      `json:"options"`
	Total     int               `json:"total"`
	Stale     bool              `json:"stale"`
	Skipped   int               `json:"skipped"`
	FetchedAt time.Time         `json:"fetched_at"`
}

// Session is one UI session's private cache, view and coordinator. Sessions
// share nothing but the remote store.
type Session struct {
	id       string
	cache    *cache.Cache
	coord    *Coordinator
	vocab    *ticket.Vocabulary
	lastSeen time.Time
}

// ID returns the session identifier carried in the session cookie.
func (s *Session) ID() string { return s.id }

// List reads through the session cache and applies f. Metrics describe the
// filtered tickets; options always come from the unfiltered collection.
func (s *Session) List(ctx context.Context, f view.Filter) (Listing, error) {
	snap, err := s.cache.GetFresh(ctx)
	if err != nil {
		return Listing{}, err
	}
	filtered := view.List(snap.Tickets, f)
	return Listing{
		Tickets:   filtered,
		Metrics:   view.Summarize(filtered, s.vocab),
		Options:   view.FilterOptions(snap.Tickets),
		Total:     len(snap.Tickets),
		Stale:     snap.Stale,
		Skipped:   snap.Skipped,
		FetchedAt: snap.FetchedAt,
	}, nil
}

// Create adds a ticket.
func (s *Session) Create(ctx context.Context, in CreateInput) (ticket.Record, error) {
	return s.coord.Create(ctx, in)
}

// UpdateStatus changes a ticket's status.
func (s *Session) UpdateStatus(ctx context.Context, ticketID, status string) (ticket.Record, error) {
	return s.coord.UpdateStatus(ctx, ticketID, status)
}

// AppendNote adds a timestamped note line to a ticket.
func (s *Session) AppendNote(ctx context.Context, ticketID, text string) (ticket.Record, error) {
	return s.coord.AppendNote(ctx, ticketID, text)
}

// Invalidate drops the session's cached snapshot freshness.
func (s *Session) Invalidate() { s.cache.Invalidate() }
