// Package ticket defines the ticket record, its column mapping and status
// vocabulary, and the error kinds shared by every layer of the service.
package ticket

import (
	"strings"
	"time"
)

// Unassigned is written when a ticket is created without a staff member.
const Unassigned = "Unassigned"

// DefaultTimestampLayout formats created/updated times and note prefixes.
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// Record is one ticket row.
type Record struct {
	ID            string    `json:"ticket_id"`
	CustomerName  string    `json:"customer_name"`
	ContactPhone  string    `json:"contact_phone"`
	Status        string    `json:"status"`
	AssignedStaff string    `json:"assigned_staff"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	UpdatedAt     time.Time `json:"updated_at,omitzero"`

	// Row is the 1-based sheet row the record was read from; zero for
	// records that have not been stored yet.
	Row int `json:"row,omitempty"`
}

// Value renders the field behind key as cell text.
func (r Record) Value(key ColumnKey, layout string) string {
	switch key {
	case ColumnTicketID:
		return r.ID
	case ColumnCustomerName:
		return r.CustomerName
	case ColumnContactPhone:
		return r.ContactPhone
	case ColumnStatus:
		return r.Status
	case ColumnAssignedStaff:
		return r.AssignedStaff
	case ColumnNotes:
		return r.Notes
	case ColumnCreatedAt:
		return FormatTime(r.CreatedAt, layout)
	case ColumnUpdatedAt:
		return FormatTime(r.UpdatedAt, layout)
	default:
		return ""
	}
}

// Set assigns cell text to the field behind key. Timestamps that do not parse
// are left zero.
func (r *Record) Set(key ColumnKey, value, layout string) {
	switch key {
	case ColumnTicketID:
		r.ID = strings.TrimSpace(value)
	case ColumnCustomerName:
		r.CustomerName = strings.TrimSpace(value)
	case ColumnContactPhone:
		r.ContactPhone = value
	case ColumnStatus:
		r.Status = strings.TrimSpace(value)
	case ColumnAssignedStaff:
		r.AssignedStaff = strings.TrimSpace(value)
	case ColumnNotes:
		r.Notes = value
	case ColumnCreatedAt:
		r.CreatedAt = ParseTime(value, layout)
	case ColumnUpdatedAt:
		r.UpdatedAt = ParseTime(value, layout)
	}
}

// FormatTime renders t with layout; the zero time renders empty.
func FormatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// ParseTime accepts layout first and RFC 3339 as a fallback for rows
// written by other tools.
func ParseTime(s, layout string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

// Collection is an ordered list of records in sheet row order.
type Collection []Record

// Find returns the first record with the given ticket id.
func (c Collection) Find(id string) (Record, bool) {
	id = strings.TrimSpace(id)
	for _, r := range c {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// Clone returns an independent copy so callers cannot mutate cached data.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	return append(Collection(nil), c...)
}
