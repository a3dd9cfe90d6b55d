package ticket

import "fmt"

// ColumnKey names a logical ticket field independent of the sheet's header text.
type ColumnKey string

// Logical columns of a ticket row.
const (
	ColumnTicketID      ColumnKey = "ticket_id"
	ColumnCustomerName  ColumnKey = "customer_name"
	ColumnContactPhone  ColumnKey = "contact_phone"
	ColumnStatus        ColumnKey = "status"
	ColumnAssignedStaff ColumnKey = "assigned_staff"
	ColumnNotes         ColumnKey = "notes"
	ColumnCreatedAt     ColumnKey = "created_at"
	ColumnUpdatedAt     ColumnKey = "updated_at"
)

// ColumnKeys lists every logical column in canonical sheet order.
var ColumnKeys = []ColumnKey{
	ColumnTicketID,
	ColumnCustomerName,
	ColumnContactPhone,
	ColumnStatus,
	ColumnAssignedStaff,
	ColumnNotes,
	ColumnCreatedAt,
	ColumnUpdatedAt,
}

var defaultHeaders = map[ColumnKey]string{
	ColumnTicketID:      "票號ID",
	ColumnCustomerName:  "客戶名稱",
	ColumnContactPhone:  "聯絡電話",
	ColumnStatus:        "狀態",
	ColumnAssignedStaff: "員工",
	ColumnNotes:         "備註",
	ColumnCreatedAt:     "建檔時間",
	ColumnUpdatedAt:     "更新時間",
}

// Columns maps logical columns to the header text used in the sheet.
// Header names are a compatibility contract with the sheet: renaming a header
// in the sheet without updating the mapping breaks reads and writes.
type Columns struct {
	headers map[ColumnKey]string
	keys    map[string]ColumnKey
}

// DefaultColumns returns the header names of the production sheet.
func DefaultColumns() Columns {
	c, err := NewColumns(nil)
	if err != nil {
		panic(err)
	}
	return c
}

// NewColumns builds a mapping from overrides; keys left out keep their default
// header. Two keys mapping to the same header is an error.
func NewColumns(overrides map[ColumnKey]string) (Columns, error) {
	c := Columns{
		headers: make(map[ColumnKey]string, len(ColumnKeys)),
		keys:    make(map[string]ColumnKey, len(ColumnKeys)),
	}
	for _, key := range ColumnKeys {
		h := defaultHeaders[key]
		if o, ok := overrides[key]; ok && o != "" {
			h = o
		}
		if prev, dup := c.keys[h]; dup {
			return Columns{}, fmt.Errorf("header %q used by both %s and %s", h, prev, key)
		}
		c.headers[key] = h
		c.keys[h] = key
	}
	return c, nil
}

// Header returns the header text for key.
func (c Columns) Header(key ColumnKey) string {
	return c.headers[key]
}

// Key resolves header text to its logical column.
func (c Columns) Key(header string) (ColumnKey, bool) {
	k, ok := c.keys[header]
	return k, ok
}

// Headers returns the header row in canonical order, used when creating a
// sheet from scratch.
func (c Columns) Headers() []string {
	out := make([]string, len(ColumnKeys))
	for i, key := range ColumnKeys {
		out[i] = c.headers[key]
	}
	return out
}
