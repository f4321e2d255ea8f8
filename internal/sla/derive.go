package sla

import (
	"math"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Derived holds the computed SLA fields of a ticket.
type Derived struct {
	ResponseTime   *float64
	ResolutionTime *float64
	SLAViolated    bool
}

// Derive computes response time, resolution time and the violation flag as of now.
// Stored response/resolution times are returned untouched; a closed ticket's violation
// flag is evaluated at its close time, so it does not drift after closure.
func Derive(t domain.Ticket, now time.Time) Derived {
	d := Derived{
		ResponseTime:   t.ResponseTime,
		ResolutionTime: t.ResolutionTime,
	}
	if d.ResponseTime == nil && t.Status != domain.TicketStatusOpen {
		d.ResponseTime = hoursBetween(t.CreatedAt, now)
	}
	if d.ResolutionTime == nil && t.Status == domain.TicketStatusClosed {
		d.ResolutionTime = hoursBetween(t.CreatedAt, now)
	}

	evaluatedAt := now
	if t.Status == domain.TicketStatusClosed && t.ClosedAt != nil {
		evaluatedAt = *t.ClosedAt
	}
	d.SLAViolated = !t.SLADueDate.IsZero() && evaluatedAt.After(t.SLADueDate)
	return d
}

// Apply writes the derived fields onto t.
func (d Derived) Apply(t *domain.Ticket) {
	t.ResponseTime = d.ResponseTime
	t.ResolutionTime = d.ResolutionTime
	t.SLAViolated = d.SLAViolated
}

func hoursBetween(from, to time.Time) *float64 {
	hours := to.Sub(from).Hours()
	if hours < 0 {
		hours = 0
	}
	rounded := math.Round(hours*100) / 100
	return &rounded
}
