package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Notification is the JSON body posted to the notification webhook.
type Notification struct {
	Event            events.EventType    `json:"event"`
	TicketID         string              `json:"ticket_id"`
	Subject          string              `json:"subject"`
	Status           domain.TicketStatus `json:"status"`
	Category         domain.Category     `json:"category"`
	EmployeeEmails   []string            `json:"employee_emails,omitempty"`
	HREmails         []string            `json:"hr_emails,omitempty"`
	EscalationReason string              `json:"escalation_reason,omitempty"`
	MessageContent   string              `json:"message_content,omitempty"`
	SenderRole       domain.Role         `json:"sender_role,omitempty"`
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	client     *http.Client
	logger     *zap.Logger
	side       *SideEffects
	cfg        config.NotificationConfig
}

// NotificationDependencies bundles collaborators for notification service.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	UserRepo    repository.UserRepository
	HTTPClient  *http.Client
	Logger      *zap.Logger
	SideEffects *SideEffects
	Config      config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: deps.Config.Timeout()}
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		users:      deps.UserRepo,
		client:     client,
		logger:     logger.Named("notifications"),
		side:       deps.SideEffects,
		cfg:        deps.Config,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
	n.dispatcher.Subscribe(events.EventTicketEscalated, n.handleTicketEscalated)
	n.dispatcher.Subscribe(events.EventChatMessagePosted, n.handleChatMessagePosted)
}

// Dispatch posts the notification to the configured webhook. It never retries.
func (n *NotificationService) Dispatch(ctx context.Context, notification Notification) error {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		n.logger.Debug("webhook not configured, skipping",
			zap.String("event", string(notification.Event)),
			zap.String("ticket_id", notification.TicketID))
		return nil
	}

	ctx, span := observability.Tracer().Start(ctx, "NotificationService.Dispatch")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout())
	defer cancel()

	body, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.cfg.WebhookToken != "" {
		req.Header.Set("Authorization", "Bearer "+n.cfg.WebhookToken)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned %d", resp.StatusCode)
	}
	n.logger.Debug("notification delivered",
		zap.String("event", string(notification.Event)),
		zap.String("ticket_id", notification.TicketID))
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	notification := baseNotification(event, payload.Ticket)
	n.deliver(ctx, event, notification)
	return nil
}

func (n *NotificationService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUpdatedPayload)
	if !ok {
		return nil
	}
	if len(payload.NewValues) == 0 {
		return nil
	}
	notification := baseNotification(event, payload.Ticket)
	n.deliver(ctx, event, notification)
	return nil
}

func (n *NotificationService) handleTicketEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketEscalatedPayload)
	if !ok {
		return nil
	}
	notification := baseNotification(event, payload.Ticket)
	notification.EscalationReason = payload.Escalation.Reason

	if n.users != nil {
		owners, err := n.users.ListByRole(ctx, domain.RoleHROwner)
		if err != nil {
			n.side.Record("notification_recipients", event, err)
		}
		for _, owner := range owners {
			notification.HREmails = append(notification.HREmails, owner.Email)
		}
	}
	n.deliver(ctx, event, notification)
	return nil
}

func (n *NotificationService) handleChatMessagePosted(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ChatMessagePostedPayload)
	if !ok {
		return nil
	}
	notification := baseNotification(event, payload.Ticket)
	notification.MessageContent = stringPreview(payload.Message.Content, 500)
	notification.SenderRole = payload.Message.SenderRole
	n.deliver(ctx, event, notification)
	return nil
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event, notification Notification) {
	if err := n.Dispatch(ctx, notification); err != nil {
		n.side.Record("notification", event, err)
	}
}

func baseNotification(event events.Event, ticket domain.Ticket) Notification {
	return Notification{
		Event:          event.Type,
		TicketID:       ticket.ID,
		Subject:        ticket.Subject,
		Status:         ticket.Status,
		Category:       ticket.Category,
		EmployeeEmails: []string{ticket.EmployeeEmail},
	}
}

// stringPreview shortens body to at most max characters, counted in runes.
func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
