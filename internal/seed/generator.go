package seed

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	customers = []string{"陳美玲", "林志明", "張雅婷", "黃俊傑", "吳淑芬", "Alice Chen", "Bob Lin"}
	staff     = []string{"師傄斯", "太郎", "久美", ""}
)

// DemoTickets returns the sample tickets the tracker ships with.
func DemoTickets(v Vocabulary) []Ticket {
	return []Ticket{
		{TicketID: "TK001", CustomerName: "王後涅", ContactPhone: "0912-345-678", Status: v.Canonical("in_progress"), AssignedStaff: "師傄斯"},
		{TicketID: "TK002", CustomerName: "漢处光", ContactPhone: "0923-456-789", Status: v.Canonical("completed"), AssignedStaff: "太郎"},
		{TicketID: "TK003", CustomerName: "李良", ContactPhone: "0934-567-890", Status: v.Default, AssignedStaff: "久美"},
	}
}

// Generate builds n tickets with unique ids under prefix, cycling through the
// configured statuses.
func Generate(n int, prefix string, v Vocabulary) []Ticket {
	kinds := []string{"unread", "pending", "in_progress", "completed"}
	out := make([]Ticket, 0, n)
	for i := range n {
		id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		out = append(out, Ticket{
			TicketID:      prefix + id,
			CustomerName:  customers[i%len(customers)],
			ContactPhone:  fmt.Sprintf("09%02d-%03d-%03d", i%100, (i*7)%1000, (i*13)%1000),
			Status:        v.Canonical(kinds[i%len(kinds)]),
			AssignedStaff: staff[i%len(staff)],
		})
	}
	return out
}
