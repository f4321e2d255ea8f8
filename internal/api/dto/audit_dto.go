package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AuditEntryResponse is one audit trail row.
type AuditEntryResponse struct {
	ID              string             `json:"id"`
	TicketID        string             `json:"ticket_id"`
	Action          domain.AuditAction `json:"action"`
	Details         string             `json:"details"`
	OldValue        map[string]any     `json:"old_value,omitempty"`
	NewValue        map[string]any     `json:"new_value,omitempty"`
	PerformedBy     string             `json:"performed_by"`
	PerformedByRole domain.Role        `json:"performed_by_role"`
	PerformedAt     time.Time          `json:"performed_at"`
}
