package rowstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
)

// SQLiteGrid keeps one or more sheets as a cells table in a SQLite file.
// It is the local stand-in for the hosted spreadsheet.
type SQLiteGrid struct {
	db    *sql.DB
	sheet string
}

// OpenSQLiteGrid opens (or creates) the database at path and addresses sheet.
func OpenSQLiteGrid(path, sheet string) (*SQLiteGrid, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite grid: open: %w", err)
	}
	// One writer at a time keeps SQLITE_BUSY out of the picture.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite grid: wal: %w", err)
	}

	g := &SQLiteGrid{db: db, sheet: sheet}
	if err := g.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return g, nil
}

func (g *SQLiteGrid) migrate() error {
	_, err := g.db.Exec(`
		CREATE TABLE IF NOT EXISTS cells (
			sheet TEXT    NOT NULL,
			row   INTEGER NOT NULL,
			col   INTEGER NOT NULL,
			value TEXT    NOT NULL DEFAULT '',
			PRIMARY KEY (sheet, row, col)
		);
	`)
	if err != nil {
		return fmt.Errorf("sqlite grid: migrate: %w", err)
	}
	return nil
}

// Close releases the database.
func (g *SQLiteGrid) Close() error {
	return g.db.Close()
}

func (g *SQLiteGrid) Values(ctx context.Context) ([][]string, error) {
	return g.query(ctx, `SELECT row, col, value FROM cells WHERE sheet = ? ORDER BY row, col`, g.sheet)
}

func (g *SQLiteGrid) Header(ctx context.Context) ([]string, error) {
	rows, err := g.query(ctx, `SELECT row, col, value FROM cells WHERE sheet = ? AND row = 1 ORDER BY col`, g.sheet)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (g *SQLiteGrid) query(ctx context.Context, q string, args ...any) ([][]string, error) {
	rs, err := g.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable("sqlite.values", err)
	}
	defer rs.Close()

	var out [][]string
	for rs.Next() {
		var (
			row, col int
			value    string
		)
		if err := rs.Scan(&row, &col, &value); err != nil {
			return nil, unavailable("sqlite.values", err)
		}
		for len(out) < row {
			out = append(out, nil)
		}
		r := out[row-1]
		for len(r) <= col {
			r = append(r, "")
		}
		r[col] = value
		out[row-1] = r
	}
	if err := rs.Err(); err != nil {
		return nil, unavailable("sqlite.values", err)
	}
	return out, nil
}

func (g *SQLiteGrid) lastRow(ctx context.Context, tx *sql.Tx) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(row), 0) FROM cells WHERE sheet = ?`, g.sheet).Scan(&n)
	return n, err
}

func (g *SQLiteGrid) Append(ctx context.Context, row []string) error {
	const op = "sqlite.append"
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	last, err := g.lastRow(ctx, tx)
	if err != nil {
		return unavailable(op, err)
	}
	for col, value := range row {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cells (sheet, row, col, value) VALUES (?, ?, ?, ?)`,
			g.sheet, last+1, col, value); err != nil {
			return unavailable(op, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

func (g *SQLiteGrid) SetCell(ctx context.Context, row, col int, value string) error {
	const op = "sqlite.set_cell"
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(op, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	last, err := g.lastRow(ctx, tx)
	if err != nil {
		return unavailable(op, err)
	}
	if row < 1 || row > last || col < 0 {
		return ticket.WrapKind(op, ticket.ErrRemoteRejected,
			fmt.Errorf("%w: %s", ErrRowOutOfRange, CellRef(row, col)))
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cells (sheet, row, col, value) VALUES (?, ?, ?, ?)
		ON CONFLICT(sheet, row, col) DO UPDATE SET value = excluded.value
	`, g.sheet, row, col, value); err != nil {
		return unavailable(op, err)
	}
	if err := tx.Commit(); err != nil {
		return unavailable(op, err)
	}
	return nil
}

// Seed writes rows into an empty sheet. A sheet that already has rows is
// left alone.
func (g *SQLiteGrid) Seed(ctx context.Context, rows [][]string) error {
	existing, err := g.Header(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, r := range rows {
		if err := g.Append(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ticket.WrapKind(op, ticket.ErrRemoteUnavailable, err)
	}
	return ticket.WrapKind(op, ticket.ErrRemoteUnavailable, fmt.Errorf("sqlite grid: %w", err))
}
