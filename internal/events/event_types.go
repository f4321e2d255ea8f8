package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket.created"
	EventTicketUpdated     EventType = "ticket.updated"
	EventTicketEscalated   EventType = "ticket.escalated"
	EventChatMessagePosted EventType = "chat.message_posted"
)

// Actor identifies who caused an event.
type Actor struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// TicketUpdatedPayload carries the ticket after the write and the changed fields before and after.
type TicketUpdatedPayload struct {
	Ticket    domain.Ticket  `json:"ticket"`
	OldValues map[string]any `json:"old_values"`
	NewValues map[string]any `json:"new_values"`
	// Rated is set when the patch contained a rating.
	Rated bool `json:"rated"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Ticket     domain.Ticket       `json:"ticket"`
	Escalation domain.Escalation   `json:"escalation"`
	OldStatus  domain.TicketStatus `json:"old_status"`
}

// ChatMessagePostedPayload payload.
type ChatMessagePostedPayload struct {
	Ticket  domain.Ticket      `json:"ticket"`
	Message domain.ChatMessage `json:"message"`
}
