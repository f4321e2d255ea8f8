package dto

import "time"

// EscalateRequest payload.
type EscalateRequest struct {
	Reason      string `json:"reason"`
	Description string `json:"description"`
	Timeline    string `json:"timeline"`
}

// EscalationResponse represents one escalation record.
type EscalationResponse struct {
	ID          string     `json:"id"`
	TicketID    string     `json:"ticket_id"`
	Reason      string     `json:"reason"`
	Description string     `json:"description,omitempty"`
	Timeline    string     `json:"timeline"`
	EscalatedBy string     `json:"escalated_by"`
	Resolved    bool       `json:"resolved"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EscalateResponse is returned by the escalate endpoint.
type EscalateResponse struct {
	Ticket           TicketResponse      `json:"ticket"`
	Escalation       *EscalationResponse `json:"escalation,omitempty"`
	AlreadyEscalated bool                `json:"already_escalated"`
}
