package rowstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
)

// GridStats counts calls made against a MemoryGrid.
type GridStats struct {
	Reads   int
	Headers int
	Appends int
	Writes  int
}

// MemoryGrid is an in-process sheet. It backs the "memory" backend and the
// tests, and can simulate an outage with SetFailure.
type MemoryGrid struct {
	mu      sync.Mutex
	rows    [][]string
	stats   GridStats
	failure error
}

// NewMemoryGrid returns a grid holding copies of rows (header first).
func NewMemoryGrid(rows ...[]string) *MemoryGrid {
	g := &MemoryGrid{}
	for _, r := range rows {
		g.rows = append(g.rows, append([]string(nil), r...))
	}
	return g
}

// DemoRows returns the sample tickets the tracker ships with, laid out under
// the given header mapping.
func DemoRows(cols ticket.Columns) [][]string {
	header := []string{
		cols.Header(ticket.ColumnTicketID),
		cols.Header(ticket.ColumnCustomerName),
		cols.Header(ticket.ColumnContactPhone),
		cols.Header(ticket.ColumnStatus),
		cols.Header(ticket.ColumnAssignedStaff),
		cols.Header(ticket.ColumnNotes),
		cols.Header(ticket.ColumnCreatedAt),
		cols.Header(ticket.ColumnUpdatedAt),
	}
	return [][]string{
		header,
		{"TK001", "王後涅", "0912-345-678", "處理中", "師傄斯", "", "", ""},
		{"TK002", "漢处光", "0923-456-789", "已完成", "太郎", "", "", ""},
		{"TK003", "李良", "0934-567-890", "未讀", "久美", "", "", ""},
	}
}

// SetFailure makes every subsequent call fail with err; nil restores service.
func (g *MemoryGrid) SetFailure(err error) {
	g.mu.Lock()
	g.failure = err
	g.mu.Unlock()
}

// Stats returns the call counters.
func (g *MemoryGrid) Stats() GridStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// Rows returns a copy of the raw grid.
func (g *MemoryGrid) Rows() [][]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.copyRows()
}

func (g *MemoryGrid) copyRows() [][]string {
	out := make([][]string, len(g.rows))
	for i, r := range g.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (g *MemoryGrid) Values(ctx context.Context) ([][]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.Reads++
	if err := g.check(ctx); err != nil {
		return nil, err
	}
	return g.copyRows(), nil
}

func (g *MemoryGrid) Header(ctx context.Context) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.Headers++
	if err := g.check(ctx); err != nil {
		return nil, err
	}
	if len(g.rows) == 0 {
		return nil, nil
	}
	return append([]string(nil), g.rows[0]...), nil
}

func (g *MemoryGrid) Append(ctx context.Context, row []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.Appends++
	if err := g.check(ctx); err != nil {
		return err
	}
	g.rows = append(g.rows, append([]string(nil), row...))
	return nil
}

func (g *MemoryGrid) SetCell(ctx context.Context, row, col int, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stats.Writes++
	if err := g.check(ctx); err != nil {
		return err
	}
	if row < 1 || row > len(g.rows) || col < 0 {
		return ticket.WrapKind("memory.set_cell", ticket.ErrRemoteRejected,
			fmt.Errorf("%w: %s", ErrRowOutOfRange, CellRef(row, col)))
	}
	r := g.rows[row-1]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = value
	g.rows[row-1] = r
	return nil
}

func (g *MemoryGrid) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ticket.WrapKind("memory", ticket.ErrRemoteUnavailable, err)
	}
	return g.failure
}
