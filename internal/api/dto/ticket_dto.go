package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Subject     string                `json:"subject"`
	Description string                `json:"description"`
	Category    domain.Category       `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketRequest carries a partial update. Absent fields are untouched;
// an empty assigned_to clears the assignment.
type UpdateTicketRequest struct {
	Status     *domain.TicketStatus   `json:"status,omitempty"`
	Priority   *domain.TicketPriority `json:"priority,omitempty"`
	Category   *domain.Category       `json:"category,omitempty"`
	AssignedTo *string                `json:"assigned_to,omitempty"`
	Rating     *int                   `json:"rating,omitempty"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID               string                `json:"id"`
	ExternalKey      string                `json:"external_key"`
	Subject          string                `json:"subject"`
	Description      string                `json:"description"`
	Category         domain.Category       `json:"category"`
	Priority         domain.TicketPriority `json:"priority"`
	Status           domain.TicketStatus   `json:"status"`
	EmployeeEmail    string                `json:"employee_email"`
	EmployeeName     string                `json:"employee_name"`
	EmployeeCode     string                `json:"employee_code,omitempty"`
	Department       string                `json:"department,omitempty"`
	AssignedTo       *string               `json:"assigned_to"`
	SLADueDate       time.Time             `json:"sla_due_date"`
	SLAViolated      bool                  `json:"sla_violated"`
	ResponseTime     *float64              `json:"response_time"`
	ResolutionTime   *float64              `json:"resolution_time"`
	Rating           *int                  `json:"rating"`
	EscalationReason *string               `json:"escalation_reason,omitempty"`
	EscalationDate   *time.Time            `json:"escalation_date,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
	ClosedAt         *time.Time            `json:"closed_at"`
}

// PageMeta describes pagination of a list response.
type PageMeta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// TicketListResponse wraps a page of tickets.
type TicketListResponse struct {
	Data []TicketResponse `json:"data"`
	Meta PageMeta         `json:"meta"`
}
