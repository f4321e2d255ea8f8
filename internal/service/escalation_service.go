package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// EscalationService runs the formal escalation workflow.
type EscalationService struct {
	tickets     repository.TicketRepository
	escalations repository.EscalationRepository
	dispatcher  events.Dispatcher
	side        *SideEffects
	logger      *zap.Logger
	now         func() time.Time
}

// EscalationDependencies bundles collaborators for escalation service.
type EscalationDependencies struct {
	TicketRepo     repository.TicketRepository
	EscalationRepo repository.EscalationRepository
	Dispatcher     events.Dispatcher
	SideEffects    *SideEffects
	Logger         *zap.Logger
	Clock          func() time.Time
}

// EscalateInput is the escalation request.
type EscalateInput struct {
	Reason      string
	Description string
	Timeline    string
}

// EscalationResult reports the outcome. Escalation is nil when AlreadyEscalated is set.
type EscalationResult struct {
	Ticket           *domain.Ticket
	Escalation       *domain.Escalation
	AlreadyEscalated bool
}

// NewEscalationService constructs the service.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &EscalationService{
		tickets:     deps.TicketRepo,
		escalations: deps.EscalationRepo,
		dispatcher:  deps.Dispatcher,
		side:        deps.SideEffects,
		logger:      logger,
		now:         clock,
	}
}

// Escalate records an escalation and moves the ticket to Escalated.
// Escalating an already escalated ticket changes nothing.
func (s *EscalationService) Escalate(ctx context.Context, ticketID string, input EscalateInput, actor domain.Principal) (*EscalationResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "EscalationService.Escalate", trace.WithAttributes(attribute.String("ticket.id", ticketID)))
	defer span.End()

	reason := strings.TrimSpace(input.Reason)
	timeline := strings.TrimSpace(input.Timeline)
	details := map[string]any{}
	if reason == "" {
		details["reason"] = "required"
	}
	if timeline == "" {
		details["timeline"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid escalation", details)
	}

	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}
	if !actor.CanView(ticket) {
		return nil, apperrors.NewForbidden("caller may not escalate this ticket")
	}

	switch ticket.Status {
	case domain.TicketStatusClosed:
		return nil, apperrors.NewValidationError("closed tickets cannot be escalated", map[string]any{"status": ticket.Status})
	case domain.TicketStatusEscalated:
		s.logger.Warn("ticket already escalated",
			zap.String("ticket_id", ticket.ID),
			zap.String("actor", actor.Email),
		)
		sla.Derive(*ticket, s.now()).Apply(ticket)
		return &EscalationResult{Ticket: ticket, AlreadyEscalated: true}, nil
	}

	now := s.now()
	escalation := &domain.Escalation{
		ID:          uuid.NewString(),
		TicketID:    ticket.ID,
		Reason:      reason,
		Description: strings.TrimSpace(input.Description),
		Timeline:    timeline,
		EscalatedBy: actor.Email,
		CreatedAt:   now,
	}

	oldStatus := ticket.Status
	ticket.Status = domain.TicketStatusEscalated
	ticket.EscalationReason = &reason
	escalatedAt := now
	ticket.EscalationDate = &escalatedAt
	ticket.UpdatedAt = now
	sla.Derive(*ticket, now).Apply(ticket)

	if err := s.escalations.CreateWithTicketUpdate(ctx, escalation, ticket); err != nil {
		span.RecordError(err)
		return nil, apperrors.FromStore("ticket", err)
	}

	publishEvent(ctx, s.dispatcher, s.side, events.Event{
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		Actor:     actorOf(actor),
		Timestamp: now,
		Payload: events.TicketEscalatedPayload{
			Ticket:     *ticket,
			Escalation: *escalation,
			OldStatus:  oldStatus,
		},
	})
	return &EscalationResult{Ticket: ticket, Escalation: escalation}, nil
}

// List returns escalations for a ticket, oldest first.
func (s *EscalationService) List(ctx context.Context, ticketID string, actor domain.Principal) ([]domain.Escalation, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}
	if !actor.CanView(ticket) {
		return nil, apperrors.NewForbidden("ticket not accessible")
	}
	items, err := s.escalations.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.FromStore("escalation", err)
	}
	if items == nil {
		items = []domain.Escalation{}
	}
	return items, nil
}
