package domain

import "time"

// AuditAction captures what kind of mutation an audit entry records.
type AuditAction string

const (
	AuditActionCreated       AuditAction = "created"
	AuditActionUpdated       AuditAction = "updated"
	AuditActionEscalated     AuditAction = "escalated"
	AuditActionRated         AuditAction = "rated"
	AuditActionMessagePosted AuditAction = "message_posted"
)

// AuditLogEntry is an immutable audit trail entry.
type AuditLogEntry struct {
	ID              string
	TicketID        string
	Action          AuditAction
	Details         string
	OldValue        map[string]any
	NewValue        map[string]any
	PerformedBy     string
	PerformedByRole Role
	PerformedAt     time.Time
}

// AuditRange limits audit queries to a recent window.
type AuditRange string

const (
	AuditRangeToday AuditRange = "today"
	AuditRangeWeek  AuditRange = "7d"
	AuditRangeMonth AuditRange = "30d"
	AuditRangeAll   AuditRange = "all"
)

// Since returns the lower bound for the range relative to now, or nil for AuditRangeAll.
func (r AuditRange) Since(now time.Time) *time.Time {
	var since time.Time
	switch r {
	case AuditRangeToday:
		y, m, d := now.Date()
		since = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	case AuditRangeWeek:
		since = now.AddDate(0, 0, -7)
	case AuditRangeMonth:
		since = now.AddDate(0, 0, -30)
	default:
		return nil
	}
	return &since
}

// IsValid reports whether r is a known range.
func (r AuditRange) IsValid() bool {
	switch r {
	case AuditRangeToday, AuditRangeWeek, AuditRangeMonth, AuditRangeAll:
		return true
	default:
		return false
	}
}
