package rowstore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
	"github.com/wildforest/ticketsync/pkg/logger"
	"github.com/wildforest/ticketsync/pkg/metrics"
)

// Operation names used for logging, metrics and error tagging.
const (
	opReadAll    = "read_all"
	opHeader     = "header"
	opAppendRow  = "append_row"
	opUpdateCell = "update_cell"
)

// ReadResult is the outcome of a full read. Skipped counts rows that were
// excluded because the ticket id or customer name was missing.
type ReadResult struct {
	Tickets ticket.Collection
	Skipped int
}

// Client reads and writes ticket rows through a Grid.
//
// The client never retries. It remembers the header seen by the latest
// successful read so writes issued right after a read address columns
// without another round trip.
type Client struct {
	grid    Grid
	columns ticket.Columns
	layout  string
	timeout time.Duration
	logger  logger.Logger

	mu     sync.RWMutex
	header []string
	initMu *sync.Mutex
}

// NewClient wraps grid. The grid is a pre-authenticated, session-scoped handle.
func NewClient(grid Grid, opts ...Option) *Client {
	c := &Client{
		grid:    grid,
		columns: ticket.DefaultColumns(),
		layout:  ticket.DefaultTimestampLayout,
		timeout: DefaultTimeout,
		initMu:  &sync.Mutex{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Named("rowstore")
	}
	return c
}

// Columns returns the header mapping in use.
func (c *Client) Columns() ticket.Columns { return c.columns }

// call runs fn under the client timeout and records its outcome.
func (c *Client) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := classify("rowstore."+op, fn(ctx))
	elapsed := time.Since(start)
	metrics.RecordRemoteCall(op, outcome(err), float64(elapsed.Milliseconds()))
	if err != nil {
		c.logger.Warn(ctx, "remote call failed",
			logger.String("op", op),
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
	}
	return err
}

// ReadAll fetches every row and maps it to a record. Fully blank rows are
// ignored; rows lacking a ticket id or customer name are excluded and counted.
func (c *Client) ReadAll(ctx context.Context) (ReadResult, error) {
	var rows [][]string
	err := c.call(ctx, opReadAll, func(ctx context.Context) error {
		var err error
		rows, err = c.grid.Values(ctx)
		return err
	})
	if err != nil {
		return ReadResult{}, err
	}

	res := ReadResult{Tickets: ticket.Collection{}}
	if len(rows) == 0 {
		c.setHeader(nil)
		return res, nil
	}
	c.setHeader(rows[0])
	keys := c.columnIndex(rows[0])

	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		if sameRow(row, rows[0]) {
			c.logger.Warn(ctx, "ignoring repeated header row", logger.Int("row", SheetRow(i)))
			continue
		}
		rec := ticket.Record{Row: SheetRow(i)}
		seen := make(map[ticket.ColumnKey]bool, len(keys))
		for col, key := range keys {
			if key == "" || seen[key] || col >= len(row) {
				continue
			}
			seen[key] = true
			rec.Set(key, row[col], c.layout)
		}
		if rec.ID == "" || rec.CustomerName == "" {
			res.Skipped++
			c.logger.Warn(ctx, "skipping malformed row",
				logger.Int("row", rec.Row),
				logger.Error(ticket.ErrMalformedRow),
			)
			continue
		}
		res.Tickets = append(res.Tickets, rec)
	}

	metrics.RecordRowsSkipped(res.Skipped)
	metrics.UpdateTicketsLoaded(len(res.Tickets))
	return res, nil
}

// AppendRow writes rec as a new row ordered by the sheet's header. Header
// columns with no matching field are written empty and fields with no header
// column are dropped. An empty sheet gets the configured header row first.
func (c *Client) AppendRow(ctx context.Context, rec ticket.Record) error {
	header, err := c.currentHeader(ctx)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		if header, err = c.initHeader(ctx); err != nil {
			return err
		}
	}

	row := make([]string, len(header))
	for i, key := range c.columnIndex(header) {
		if key != "" {
			row[i] = rec.Value(key, c.layout)
		}
	}
	return c.call(ctx, opAppendRow, func(ctx context.Context) error {
		return c.grid.Append(ctx, row)
	})
}

// UpdateCell overwrites one field of the row at rowIndex (0-based among data
// rows, i.e. sheet row rowIndex+2). Only that cell is written.
func (c *Client) UpdateCell(ctx context.Context, rowIndex int, key ticket.ColumnKey, value string) error {
	const op = "rowstore." + opUpdateCell
	if rowIndex < 0 {
		return ticket.WrapKind(op, ticket.ErrRemoteRejected, fmt.Errorf("%w: index %d", ErrRowOutOfRange, rowIndex))
	}
	header, err := c.currentHeader(ctx)
	if err != nil {
		return err
	}
	col := -1
	for i, key2 := range c.columnIndex(header) {
		if key2 == key {
			col = i
			break
		}
	}
	if col < 0 {
		return ticket.WrapKind(op, ticket.ErrRemoteRejected,
			fmt.Errorf("%w: %s (%q)", ticket.ErrUnknownColumn, key, c.columns.Header(key)))
	}
	return c.call(ctx, opUpdateCell, func(ctx context.Context) error {
		return c.grid.SetCell(ctx, SheetRow(rowIndex), col, value)
	})
}

// columnIndex maps each header position to its logical column; positions
// with an unknown header map to "".
func (c *Client) columnIndex(header []string) []ticket.ColumnKey {
	keys := make([]ticket.ColumnKey, len(header))
	for i, h := range header {
		if key, ok := c.columns.Key(strings.TrimSpace(h)); ok {
			keys[i] = key
		}
	}
	return keys
}

// initHeader writes the configured header row unless another append got
// there first. Clients sharing a header lock (see WithHeaderLock) write it once.
func (c *Client) initHeader(ctx context.Context) ([]string, error) {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	var h []string
	if err := c.call(ctx, opHeader, func(ctx context.Context) error {
		var err error
		h, err = c.grid.Header(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	if len(h) > 0 {
		c.setHeader(h)
		return h, nil
	}

	h = c.columns.Headers()
	if err := c.call(ctx, opAppendRow, func(ctx context.Context) error {
		return c.grid.Append(ctx, h)
	}); err != nil {
		return nil, err
	}
	c.setHeader(h)
	c.logger.Info(ctx, "initialized empty sheet with header row", logger.Int("columns", len(h)))
	return h, nil
}

func (c *Client) setHeader(h []string) {
	c.mu.Lock()
	c.header = append([]string(nil), h...)
	c.mu.Unlock()
}

// currentHeader returns the header of the last read, fetching it when no read
// has happened yet.
func (c *Client) currentHeader(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	h := c.header
	c.mu.RUnlock()
	if h != nil {
		return h, nil
	}
	err := c.call(ctx, opHeader, func(ctx context.Context) error {
		var err error
		h, err = c.grid.Header(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.setHeader(h)
	return h, nil
}
