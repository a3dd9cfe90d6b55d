package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wildforest/ticketsync/internal/adapters/cache"
	"github.com/wildforest/ticketsync/internal/adapters/rowstore"
	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/logger"
	"github.com/wildforest/ticketsync/pkg/metrics"
)

// Mutation names used for logging and metrics.
const (
	mutationCreate       = "create"
	mutationUpdateStatus = "update_status"
	mutationAppendNote   = "append_note"
)

// RowWriter is the write side of the row store client.
type RowWriter interface {
	AppendRow(ctx context.Context, rec ticket.Record) error
	UpdateCell(ctx context.Context, rowIndex int, key ticket.ColumnKey, value string) error
}

// Snapshots is the part of the record cache the coordinator drives.
type Snapshots interface {
	Refresh(ctx context.Context) (cache.Snapshot, error)
	Invalidate()
}

// CreateInput carries the fields a user submits for a new ticket.
type CreateInput struct {
	TicketID      string `json:"ticket_id"`
	CustomerName  string `json:"customer_name"`
	ContactPhone  string `json:"contact_phone"`
	Status        string `json:"status"`
	AssignedStaff string `json:"assigned_staff"`
	Notes         string `json:"notes"`
}

// Coordinator validates and applies ticket mutations, then invalidates the
// session cache. It does not retry: a remote failure is returned to the
// caller, who is told the change did not happen.
//
// Writes are not atomic with respect to other sessions. Two sessions updating
// the same ticket race at the cell level and the later write wins.
type Coordinator struct {
	store  RowWriter
	cache  Snapshots
	vocab  *ticket.Vocabulary
	layout string
	now    func() time.Time
	logger logger.Logger

	// mu serializes mutations within the session.
	mu sync.Mutex
}

// NewCoordinator wires a coordinator for one session.
func NewCoordinator(store RowWriter, snapshots Snapshots, vocab *ticket.Vocabulary, layout string, now func() time.Time, l logger.Logger) *Coordinator {
	if vocab == nil {
		vocab = ticket.DefaultVocabulary()
	}
	if layout == "" {
		layout = ticket.DefaultTimestampLayout
	}
	if now == nil {
		now = time.Now
	}
	if l == nil {
		l = logger.Named("coordinator")
	}
	return &Coordinator{store: store, cache: snapshots, vocab: vocab, layout: layout, now: now, logger: l}
}

// Create validates in and appends a new row. Status defaults to the unread
// literal and staff to Unassigned.
func (c *Coordinator) Create(ctx context.Context, in CreateInput) (rec ticket.Record, err error) {
	const op = "app.create"
	defer func() { c.record(ctx, mutationCreate, in.TicketID, err) }()
	c.mu.Lock()
	defer c.mu.Unlock()

	id := strings.TrimSpace(in.TicketID)
	name := strings.TrimSpace(in.CustomerName)
	switch {
	case id == "":
		return ticket.Record{}, ticket.Invalid(op, "ticket id is required")
	case name == "":
		return ticket.Record{}, ticket.Invalid(op, "customer name is required")
	}
	status, err := c.status(op, in.Status, true)
	if err != nil {
		return ticket.Record{}, err
	}
	staff := strings.TrimSpace(in.AssignedStaff)
	if staff == "" {
		staff = ticket.Unassigned
	}

	snap, err := c.cache.Refresh(ctx)
	if err != nil {
		return ticket.Record{}, err
	}
	if _, exists := snap.Tickets.Find(id); exists {
		return ticket.Record{}, ticket.WrapKind(op, ticket.ErrValidation,
			fmt.Errorf("%w: %s already exists", ticket.ErrDuplicateTicket, id))
	}

	now := c.now()
	rec = ticket.Record{
		ID:            id,
		CustomerName:  name,
		ContactPhone:  in.ContactPhone,
		Status:        status,
		AssignedStaff: staff,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := c.store.AppendRow(ctx, rec); err != nil {
		return ticket.Record{}, err
	}
	c.cache.Invalidate()
	return rec, nil
}

// UpdateStatus writes a new status literal and the updated-at time for the
// ticket, locating its row from a fresh read.
func (c *Coordinator) UpdateStatus(ctx context.Context, ticketID, status string) (rec ticket.Record, err error) {
	const op = "app.update_status"
	defer func() { c.record(ctx, mutationUpdateStatus, ticketID, err) }()
	c.mu.Lock()
	defer c.mu.Unlock()

	status, err = c.status(op, status, false)
	if err != nil {
		return ticket.Record{}, err
	}
	rec, err = c.locate(ctx, op, ticketID)
	if err != nil {
		return ticket.Record{}, err
	}
	defer c.cache.Invalidate()

	idx := rowstore.RowIndex(rec.Row)
	if err := c.store.UpdateCell(ctx, idx, ticket.ColumnStatus, status); err != nil {
		return ticket.Record{}, err
	}
	rec.Status = status
	rec.UpdatedAt, err = c.touch(ctx, idx)
	if err != nil {
		return ticket.Record{}, err
	}
	return rec, nil
}

// AppendNote adds a "[timestamp] text" line after the ticket's existing notes.
func (c *Coordinator) AppendNote(ctx context.Context, ticketID, text string) (rec ticket.Record, err error) {
	const op = "app.append_note"
	defer func() { c.record(ctx, mutationAppendNote, ticketID, err) }()
	c.mu.Lock()
	defer c.mu.Unlock()

	text = strings.TrimSpace(text)
	if text == "" {
		return ticket.Record{}, ticket.Invalid(op, "note text is required")
	}
	rec, err = c.locate(ctx, op, ticketID)
	if err != nil {
		return ticket.Record{}, err
	}
	defer c.cache.Invalidate()

	line := fmt.Sprintf("[%s] %s", c.now().Format(c.layout), text)
	notes := line
	if prior := strings.TrimRight(rec.Notes, "\n"); prior != "" {
		notes = prior + "\n" + line
	}

	idx := rowstore.RowIndex(rec.Row)
	if err := c.store.UpdateCell(ctx, idx, ticket.ColumnNotes, notes); err != nil {
		return ticket.Record{}, err
	}
	rec.Notes = notes
	rec.UpdatedAt, err = c.touch(ctx, idx)
	if err != nil {
		return ticket.Record{}, err
	}
	return rec, nil
}

// status validates a status literal against the vocabulary. An empty literal
// is allowed only on create, where it means unread.
func (c *Coordinator) status(op, literal string, allowEmpty bool) (string, error) {
	literal = strings.TrimSpace(literal)
	if literal == "" {
		if allowEmpty {
			return c.vocab.Canonical(ticket.KindUnread), nil
		}
		return "", ticket.Invalid(op, "status is required")
	}
	if !c.vocab.Known(literal) {
		return "", ticket.Invalid(op, "unknown status %q", literal)
	}
	return literal, nil
}

// locate resolves a ticket id against a fresh read so row positions reflect
// any reordering done in the sheet since the last list.
func (c *Coordinator) locate(ctx context.Context, op, ticketID string) (ticket.Record, error) {
	id := strings.TrimSpace(ticketID)
	if id == "" {
		return ticket.Record{}, ticket.Invalid(op, "ticket id is required")
	}
	snap, err := c.cache.Refresh(ctx)
	if err != nil {
		return ticket.Record{}, err
	}
	rec, ok := snap.Tickets.Find(id)
	if !ok {
		return ticket.Record{}, ticket.WrapKind(op, ticket.ErrNotFound, fmt.Errorf("no ticket %s", id))
	}
	return rec, nil
}

// touch writes the updated-at cell. Sheets without that column are tolerated.
func (c *Coordinator) touch(ctx context.Context, idx int) (time.Time, error) {
	now := c.now()
	err := c.store.UpdateCell(ctx, idx, ticket.ColumnUpdatedAt, ticket.FormatTime(now, c.layout))
	if errors.Is(err, ticket.ErrUnknownColumn) {
		c.logger.Warn(ctx, "sheet has no updated-at column; skipping timestamp", logger.Int("row", rowstore.SheetRow(idx)))
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (c *Coordinator) record(ctx context.Context, op, ticketID string, err error) {
	outcome := mutationOutcome(err)
	metrics.RecordMutation(op, outcome)
	if err != nil {
		c.logger.Warn(ctx, "mutation failed",
			logger.String("op", op),
			logger.String("ticket_id", ticketID),
			logger.String("outcome", outcome),
			logger.Error(err),
		)
		return
	}
	c.logger.Info(ctx, "mutation applied", logger.String("op", op), logger.String("ticket_id", ticketID))
}

func mutationOutcome(err error) string {
	switch ticket.KindOf(err) {
	case nil:
		if err != nil {
			return metrics.OutcomeError
		}
		return metrics.OutcomeOK
	case ticket.ErrValidation:
		return metrics.OutcomeInvalid
	case ticket.ErrNotFound:
		return metrics.OutcomeNotFound
	case ticket.ErrRemoteRejected:
		return metrics.OutcomeRejected
	case ticket.ErrRemoteUnavailable:
		return metrics.OutcomeUnavailable
	default:
		return metrics.OutcomeError
	}
}
