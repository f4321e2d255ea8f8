package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest selects a 1-based page.
type PageRequest struct {
	Page     int
	PageSize int
}

func (p PageRequest) normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.PageSize
}

// Page is one slice of a listing together with the unpaged total.
type Page[T any] struct {
	Items    []T
	Total    int
	Page     int
	PageSize int
}

// SideEffects records failures of secondary effects. They never fail the primary mutation.
type SideEffects struct {
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewSideEffects builds the side channel on a logger named side_effects.
func NewSideEffects(logger *zap.Logger, metrics *observability.Metrics) *SideEffects {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SideEffects{logger: logger.Named(observability.SideEffectsLogger), metrics: metrics}
}

// Record logs a failed secondary effect of the given kind.
func (s *SideEffects) Record(kind string, event events.Event, err error) {
	if s == nil || err == nil {
		return
	}
	s.logger.Error("secondary effect failed",
		zap.String("kind", kind),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor", event.Actor.Email),
		zap.Error(err),
	)
	if errors.Is(err, events.ErrQueueFull) {
		s.metrics.RecordDroppedEvent()
	}
	s.metrics.RecordSideEffectFailure(kind)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, side *SideEffects, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		side.Record("dispatch", event, err)
	}
}

// loadTicket fetches a ticket by id. Ticket ids are UUIDs, so anything else is reported as not found.
func loadTicket(ctx context.Context, tickets repository.TicketRepository, id string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	ticket, err := tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}
	return ticket, nil
}

func systemClock() time.Time {
	return time.Now().UTC()
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
