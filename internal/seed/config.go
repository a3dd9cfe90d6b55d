// Package seed drives a running ticketsync server through its HTTP API: it
// creates sample tickets, exercises every mutation and verifies the result.
package seed

import "time"

// Config holds configuration for a seed run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Extra    int           // Generated tickets on top of the demo set
	Prefix   string        // Ticket id prefix for generated tickets
	Workers  int           // Concurrent create requests
	Timeout  time.Duration // HTTP request timeout
	Note     string        // Note appended during verification
	SkipDemo bool          // Do not submit the demo tickets
	Verbose  bool          // Log every request
}

// Ticket is the create payload and the list item shape.
type Ticket struct {
	TicketID      string `json:"ticket_id"`
	CustomerName  string `json:"customer_name"`
	ContactPhone  string `json:"contact_phone,omitempty"`
	Status        string `json:"status,omitempty"`
	AssignedStaff string `json:"assigned_staff,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// Listing is the subset of GET /api/tickets the run inspects.
type Listing struct {
	Tickets []Ticket `json:"tickets"`
	Metrics struct {
		Total    int            `json:"total"`
		ByStatus map[string]int `json:"by_status"`
	} `json:"metrics"`
	Total   int  `json:"total"`
	Stale   bool `json:"stale"`
	Skipped int  `json:"skipped"`
}

// Vocabulary is the subset of GET /api/vocabulary the run needs.
type Vocabulary struct {
	Statuses []struct {
		Kind      string `json:"kind"`
		Canonical string `json:"canonical"`
	} `json:"statuses"`
	Default string `json:"default"`
}

// Canonical returns the canonical literal for a kind name.
func (v Vocabulary) Canonical(kind string) string {
	for _, s := range v.Statuses {
		if s.Kind == kind {
			return s.Canonical
		}
	}
	return ""
}

// Stats holds run statistics.
type Stats struct {
	Submitted  int
	Created    int
	Duplicate  int
	Failed     int
	Listed     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Verified   bool
	VerifiedID string
}
