package rowstore

import (
	"strconv"
	"strings"
)

// ColumnLetter converts a 0-based column index to A1 letters (0 -> A, 26 -> AA).
func ColumnLetter(col int) string {
	if col < 0 {
		return ""
	}
	var b []byte
	for n := col + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

// CellRef renders a 1-based row and 0-based column as an A1 reference.
func CellRef(row, col int) string {
	return ColumnLetter(col) + strconv.Itoa(row)
}

// quoteSheet quotes a tab name for use in an A1 range.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
