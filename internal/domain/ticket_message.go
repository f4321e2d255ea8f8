package domain

import "time"

// ChatMessage is one entry in a ticket's conversation thread.
type ChatMessage struct {
	ID              string
	TicketID        string
	ClientMessageID *string
	SenderEmail     string
	SenderRole      Role
	Content         string
	CreatedAt       time.Time
}
