package domain

import "time"

// Escalation records one formal request to expedite a ticket.
type Escalation struct {
	ID          string
	TicketID    string
	Reason      string
	Description string
	Timeline    string
	EscalatedBy string
	Resolved    bool
	ResolvedAt  *time.Time
	CreatedAt   time.Time
}
