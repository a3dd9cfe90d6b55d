// Package rowstore adapts a remote tabular store (a spreadsheet tab, or a
// stand-in for one) to ticket records. The Client owns the header mapping,
// malformed-row accounting, timeouts and error classification; a Grid backend
// only moves raw cell text.
package rowstore

import (
	"context"
	"strings"
)

// FirstDataRow is the 1-based sheet row of the first ticket; row 1 is the header.
const FirstDataRow = 2

// SheetRow converts a 0-based data row index to the 1-based sheet row.
func SheetRow(rowIndex int) int { return rowIndex + FirstDataRow }

// RowIndex converts a 1-based sheet row to the 0-based data row index.
func RowIndex(sheetRow int) int { return sheetRow - FirstDataRow }

// Grid is raw cell access to one sheet. Rows are 1-based sheet rows with the
// header at row 1; columns are 0-based. Implementations classify their
// failures with ticket.ErrRemoteUnavailable or ticket.ErrRemoteRejected.
type Grid interface {
	// Values returns every row of the sheet, header first. Trailing empty
	// cells may be omitted, so rows can be ragged.
	Values(ctx context.Context) ([][]string, error)

	// Header returns the first row only.
	Header(ctx context.Context) ([]string, error)

	// Append writes row after the last non-empty row.
	Append(ctx context.Context, row []string) error

	// SetCell overwrites one cell of an existing row.
	SetCell(ctx context.Context, row, col int, value string) error
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// sameRow reports whether row repeats header cell for cell, ignoring
// surrounding space and trailing empty cells.
func sameRow(row, header []string) bool {
	n := max(len(row), len(header))
	for i := range n {
		var a, b string
		if i < len(row) {
			a = strings.TrimSpace(row[i])
		}
		if i < len(header) {
			b = strings.TrimSpace(header[i])
		}
		if a != b {
			return false
		}
	}
	return true
}
