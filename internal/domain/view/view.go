// Package view turns a ticket collection into what the list screen shows:
// a filtered list, aggregate counts and the values offered by the filters.
package view

import (
	"encoding/json"

	"github.com/wildforest/ticketsync/internal/domain/ticket"
)

// Filter restricts a listing by status literal and by assigned staff.
// An empty set on either axis places no restriction on that axis.
type Filter struct {
	Statuses map[string]struct{}
	Staff    map[string]struct{}
}

// NewFilter builds a Filter from value lists; blank values are ignored.
func NewFilter(statuses, staff []string) Filter {
	return Filter{Statuses: toSet(statuses), Staff: toSet(staff)}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}

// Match reports whether r passes both axes of f.
func (f Filter) Match(r ticket.Record) bool {
	if len(f.Statuses) > 0 {
		if _, ok := f.Statuses[r.Status]; !ok {
			return false
		}
	}
	if len(f.Staff) > 0 {
		if _, ok := f.Staff[r.AssignedStaff]; !ok {
			return false
		}
	}
	return true
}

// List returns the records of c that match f, in their original order.
func List(c ticket.Collection, f Filter) ticket.Collection {
	out := make(ticket.Collection, 0, len(c))
	for _, r := range c {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Metrics are the aggregate counts shown above the ticket table.
type Metrics struct {
	Total    int
	ByStatus map[ticket.Kind]int
}

// MarshalJSON renders buckets by kind name.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"by_status"`
	}{Total: m.Total, ByStatus: m.Buckets()})
}

// Count returns the number of records of kind k.
func (m Metrics) Count(k ticket.Kind) int {
	return m.ByStatus[k]
}

// Buckets returns the counts keyed by kind name, including the catch-all
// bucket for literals outside the vocabulary.
func (m Metrics) Buckets() map[string]int {
	out := make(map[string]int, len(ticket.Kinds)+1)
	for _, k := range ticket.Kinds {
		out[k.String()] = m.ByStatus[k]
	}
	out[ticket.KindOther.String()] = m.ByStatus[ticket.KindOther]
	return out
}

// Summarize counts c by status kind. Every record lands in exactly one bucket,
// so the buckets always sum to Total.
func Summarize(c ticket.Collection, vocab *ticket.Vocabulary) Metrics {
	m := Metrics{
		Total:    len(c),
		ByStatus: make(map[ticket.Kind]int, len(ticket.Kinds)+1),
	}
	for _, k := range ticket.Kinds {
		m.ByStatus[k] = 0
	}
	m.ByStatus[ticket.KindOther] = 0
	for _, r := range c {
		m.ByStatus[vocab.Classify(r.Status)]++
	}
	return m
}

// Options are the values the status and staff selectors offer.
type Options struct {
	Statuses []string `json:"statuses"`
	Staff    []string `json:"staff"`
}

// FilterOptions collects the distinct status and staff values of the
// unfiltered collection in first-seen order.
func FilterOptions(c ticket.Collection) Options {
	opts := Options{Statuses: []string{}, Staff: []string{}}
	seenStatus := make(map[string]struct{})
	seenStaff := make(map[string]struct{})
	for _, r := range c {
		if _, ok := seenStatus[r.Status]; !ok {
			seenStatus[r.Status] = struct{}{}
			opts.Statuses = append(opts.Statuses, r.Status)
		}
		if _, ok := seenStaff[r.AssignedStaff]; !ok {
			seenStaff[r.AssignedStaff] = struct{}{}
			opts.Staff = append(opts.Staff, r.AssignedStaff)
		}
	}
	return opts
}
