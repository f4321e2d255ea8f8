package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	maxMessageLength = 4000
	chatPageLimit    = 200
	uniqueViolation  = "23505"
)

// ChatService manages the per-ticket conversation thread.
type ChatService struct {
	messages   repository.ChatRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	side       *SideEffects
	now        func() time.Time
}

// ChatDependencies bundles collaborators for chat service.
type ChatDependencies struct {
	ChatRepo    repository.ChatRepository
	TicketRepo  repository.TicketRepository
	Dispatcher  events.Dispatcher
	SideEffects *SideEffects
	Clock       func() time.Time
}

// ChatSendInput is one message post.
type ChatSendInput struct {
	Content         string
	ClientMessageID *string
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &ChatService{
		messages:   deps.ChatRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		side:       deps.SideEffects,
		now:        clock,
	}
}

// Send posts a message. A repeated client message id returns the stored message and created=false.
func (s *ChatService) Send(ctx context.Context, ticketID string, input ChatSendInput, actor domain.Principal) (*domain.ChatMessage, bool, error) {
	ctx, span := observability.Tracer().Start(ctx, "ChatService.Send")
	defer span.End()

	content := strings.TrimSpace(input.Content)
	switch {
	case content == "":
		return nil, false, apperrors.NewValidationError("message content required", nil)
	case len(content) > maxMessageLength:
		return nil, false, apperrors.NewValidationError(fmt.Sprintf("message must be at most %d characters", maxMessageLength), nil)
	}

	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, false, apperrors.FromStore("ticket", err)
	}
	if !actor.CanView(ticket) {
		return nil, false, apperrors.NewForbidden("ticket not accessible")
	}
	if ticket.Status == domain.TicketStatusClosed {
		return nil, false, apperrors.NewValidationError("ticket is closed", map[string]any{"status": ticket.Status})
	}

	clientID := trimmedPtr(input.ClientMessageID)
	if clientID != nil {
		existing, err := s.messages.GetByClientID(ctx, ticket.ID, *clientID)
		switch {
		case err == nil:
			return existing, false, nil
		case !errors.Is(err, pgx.ErrNoRows):
			return nil, false, apperrors.FromStore("message", err)
		}
	}

	msg := &domain.ChatMessage{
		ID:              uuid.NewString(),
		TicketID:        ticket.ID,
		ClientMessageID: clientID,
		SenderEmail:     actor.Email,
		SenderRole:      actor.Role,
		Content:         content,
		CreatedAt:       s.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		var pgErr *pgconn.PgError
		if clientID != nil && errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			existing, getErr := s.messages.GetByClientID(ctx, ticket.ID, *clientID)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, apperrors.FromStore("message", err)
	}

	publishEvent(ctx, s.dispatcher, s.side, events.Event{
		Type:      events.EventChatMessagePosted,
		TicketID:  ticket.ID,
		Actor:     actorOf(actor),
		Timestamp: msg.CreatedAt,
		Payload:   events.ChatMessagePostedPayload{Ticket: *ticket, Message: *msg},
	})
	return msg, true, nil
}

// List returns messages posted after the cursor, oldest first.
func (s *ChatService) List(ctx context.Context, ticketID string, after *time.Time, actor domain.Principal) ([]domain.ChatMessage, error) {
	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}
	if !actor.CanView(ticket) {
		return nil, apperrors.NewForbidden("ticket not accessible")
	}
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID, after, chatPageLimit)
	if err != nil {
		return nil, apperrors.FromStore("message", err)
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	return msgs, nil
}
