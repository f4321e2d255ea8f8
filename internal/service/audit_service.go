package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AuditService records and queries the append-only audit trail.
type AuditService struct {
	entries repository.AuditRepository
	tickets repository.TicketRepository
	side    *SideEffects
	now     func() time.Time
}

// AuditDependencies bundles collaborators for audit service.
type AuditDependencies struct {
	AuditRepo   repository.AuditRepository
	TicketRepo  repository.TicketRepository
	SideEffects *SideEffects
	Clock       func() time.Time
}

// NewAuditService constructs the service.
func NewAuditService(deps AuditDependencies) *AuditService {
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &AuditService{entries: deps.AuditRepo, tickets: deps.TicketRepo, side: deps.SideEffects, now: clock}
}

// Append stores entry, filling its ID and timestamp when unset.
func (s *AuditService) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	details := map[string]any{}
	if entry.TicketID == "" {
		details["ticket_id"] = "required"
	}
	if entry.Action == "" {
		details["action"] = "required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid audit entry", details)
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.PerformedAt.IsZero() {
		entry.PerformedAt = s.now()
	}
	if err := s.entries.Create(ctx, entry); err != nil {
		return apperrors.FromStore("audit entry", err)
	}
	return nil
}

// Query lists entries for one ticket, or for every ticket when ticketID is nil (admins only).
func (s *AuditService) Query(ctx context.Context, ticketID *string, rng domain.AuditRange, actor domain.Principal) ([]domain.AuditLogEntry, error) {
	if rng == "" {
		rng = domain.AuditRangeAll
	}
	if !rng.IsValid() {
		return nil, apperrors.NewValidationError("unknown range", map[string]any{"range": rng})
	}

	if ticketID == nil {
		if !ScopeFor(actor).CanViewAllAudit {
			return nil, apperrors.NewForbidden("audit across tickets requires admin")
		}
	} else {
		ticket, err := loadTicket(ctx, s.tickets, *ticketID)
		if err != nil {
			return nil, apperrors.FromStore("ticket", err)
		}
		if !actor.CanView(ticket) {
			return nil, apperrors.NewForbidden("ticket not accessible")
		}
	}

	entries, err := s.entries.List(ctx, repository.AuditFilter{TicketID: ticketID, Since: rng.Since(s.now())})
	if err != nil {
		return nil, apperrors.FromStore("audit entry", err)
	}
	if entries == nil {
		entries = []domain.AuditLogEntry{}
	}
	return entries, nil
}

// RegisterHandlers subscribes audit recording to ticket and chat events.
func (s *AuditService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketCreated, s.HandleEvent)
	dispatcher.Subscribe(events.EventTicketUpdated, s.HandleEvent)
	dispatcher.Subscribe(events.EventTicketEscalated, s.HandleEvent)
	dispatcher.Subscribe(events.EventChatMessagePosted, s.HandleEvent)
}

// HandleEvent turns an event into audit entries. Failures go to the side channel.
func (s *AuditService) HandleEvent(ctx context.Context, event events.Event) error {
	for _, entry := range auditEntriesFor(event) {
		if err := s.Append(ctx, &entry); err != nil {
			s.side.Record("audit", event, err)
		}
	}
	return nil
}

func auditEntriesFor(event events.Event) []domain.AuditLogEntry {
	base := domain.AuditLogEntry{
		TicketID:        event.TicketID,
		PerformedBy:     event.Actor.Email,
		PerformedByRole: event.Actor.Role,
		PerformedAt:     event.Timestamp,
	}

	switch payload := event.Payload.(type) {
	case events.TicketCreatedPayload:
		entry := base
		entry.Action = domain.AuditActionCreated
		entry.Details = fmt.Sprintf("Ticket created: %s", payload.Ticket.Subject)
		entry.NewValue = map[string]any{
			"subject":  payload.Ticket.Subject,
			"category": payload.Ticket.Category,
			"priority": payload.Ticket.Priority,
			"status":   payload.Ticket.Status,
		}
		return []domain.AuditLogEntry{entry}

	case events.TicketUpdatedPayload:
		oldValues := copyMap(payload.OldValues)
		newValues := copyMap(payload.NewValues)
		var result []domain.AuditLogEntry
		if payload.Rated {
			entry := base
			entry.Action = domain.AuditActionRated
			entry.Details = "Ticket rated"
			var rating any
			if payload.Ticket.Rating != nil {
				rating = *payload.Ticket.Rating
			}
			previous, changed := oldValues["rating"]
			if !changed {
				previous = rating
			}
			entry.OldValue = map[string]any{"rating": previous}
			entry.NewValue = map[string]any{"rating": rating}
			delete(oldValues, "rating")
			delete(newValues, "rating")
			result = append(result, entry)
		}
		if len(newValues) > 0 || !payload.Rated {
			entry := base
			entry.Action = domain.AuditActionUpdated
			entry.Details = describeChanges(newValues)
			entry.OldValue = oldValues
			entry.NewValue = newValues
			result = append(result, entry)
		}
		return result

	case events.TicketEscalatedPayload:
		entry := base
		entry.Action = domain.AuditActionEscalated
		entry.Details = fmt.Sprintf("Escalated: %s", payload.Escalation.Reason)
		entry.OldValue = map[string]any{"status": payload.OldStatus}
		entry.NewValue = map[string]any{
			"status":        payload.Ticket.Status,
			"reason":        payload.Escalation.Reason,
			"timeline":      payload.Escalation.Timeline,
			"escalation_id": payload.Escalation.ID,
		}
		return []domain.AuditLogEntry{entry}

	case events.ChatMessagePostedPayload:
		entry := base
		entry.Action = domain.AuditActionMessagePosted
		entry.Details = "Message posted"
		entry.NewValue = map[string]any{"message_id": payload.Message.ID}
		return []domain.AuditLogEntry{entry}
	}
	return nil
}

func describeChanges(newValues map[string]any) string {
	if len(newValues) == 0 {
		return "No field changes"
	}
	fields := make([]string, 0, len(newValues))
	for _, key := range []string{"status", "priority", "category", "assigned_to"} {
		if _, ok := newValues[key]; ok {
			fields = append(fields, key)
		}
	}
	return "Updated " + strings.Join(fields, ", ")
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
