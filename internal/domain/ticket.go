package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "Open"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusEscalated  TicketStatus = "Escalated"
	TicketStatusClosed     TicketStatus = "Closed"
)

// IsValid reports whether s is a known status.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusEscalated, TicketStatusClosed:
		return true
	default:
		return false
	}
}

// IsTerminal is true for Closed; no transition leaves it.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// IsValid reports whether p is a known priority.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	default:
		return false
	}
}

// Category is the department bucket a ticket belongs to.
type Category string

const (
	CategoryIT             Category = "IT Infrastructure"
	CategoryHR             Category = "HR"
	CategoryAdministration Category = "Administration"
	CategoryAccounts       Category = "Accounts"
	CategoryOthers         Category = "Others"
)

// AllCategories lists the fixed category set in display order.
var AllCategories = []Category{CategoryIT, CategoryHR, CategoryAdministration, CategoryAccounts, CategoryOthers}

// IsValid reports whether c is one of the fixed categories.
func (c Category) IsValid() bool {
	for _, candidate := range AllCategories {
		if c == candidate {
			return true
		}
	}
	return false
}

// Ticket is the aggregate for help-desk requests.
type Ticket struct {
	ID               string
	ExternalKey      string
	Subject          string
	Description      string
	Category         Category
	Priority         TicketPriority
	Status           TicketStatus
	EmployeeEmail    string
	EmployeeName     string
	EmployeeCode     string
	Department       string
	AssignedTo       *string
	SLADueDate       time.Time
	ResponseTime     *float64
	ResolutionTime   *float64
	SLAViolated      bool
	Rating           *int
	EscalationReason *string
	EscalationDate   *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ClosedAt         *time.Time
}

// IsOwnedBy reports whether email filed the ticket.
func (t *Ticket) IsOwnedBy(email string) bool {
	return t.EmployeeEmail == email
}

// IsAssignedTo reports whether email is the current assignee.
func (t *Ticket) IsAssignedTo(email string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == email
}

// TicketPatch carries the fields an Update may change. Nil means untouched.
type TicketPatch struct {
	Status     *TicketStatus
	Priority   *TicketPriority
	Category   *Category
	AssignedTo *string
	Rating     *int
}

// TouchesManagedFields is true when the patch changes fields reserved for assignees and owners.
func (p TicketPatch) TouchesManagedFields() bool {
	return p.Status != nil || p.Priority != nil || p.Category != nil || p.AssignedTo != nil
}

// IsEmpty reports whether no field is set.
func (p TicketPatch) IsEmpty() bool {
	return !p.TouchesManagedFields() && p.Rating == nil
}
