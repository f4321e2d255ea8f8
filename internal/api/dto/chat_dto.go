package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateMessageRequest payload.
type CreateMessageRequest struct {
	Content         string  `json:"content"`
	ClientMessageID *string `json:"client_message_id,omitempty"`
}

// ChatMessageResponse represents a thread message.
type ChatMessageResponse struct {
	ID              string      `json:"id"`
	TicketID        string      `json:"ticket_id"`
	ClientMessageID *string     `json:"client_message_id,omitempty"`
	SenderEmail     string      `json:"sender_email"`
	SenderRole      domain.Role `json:"sender_role"`
	Content         string      `json:"content"`
	CreatedAt       time.Time   `json:"created_at"`
}
