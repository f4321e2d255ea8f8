package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	maxSubjectLength     = 200
	maxDescriptionLength = 10000
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	escalations repository.EscalationRepository
	users       repository.UserRepository
	dispatcher  events.Dispatcher
	policy      sla.Policy
	side        *SideEffects
	now         func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	EscalationRepo repository.EscalationRepository
	UserRepo       repository.UserRepository
	Dispatcher     events.Dispatcher
	Policy         sla.Policy
	SideEffects    *SideEffects
	Clock          func() time.Time
}

// TicketDraft describes ticket creation payload. The filing employee is the caller and
// their name, code and department are copied from the user directory.
type TicketDraft struct {
	Subject     string
	Description string
	Category    domain.Category
	Priority    domain.TicketPriority
}

// TicketQuery describes optional listing filters.
type TicketQuery struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Categories  []domain.Category
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	PageRequest
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	policy := deps.Policy
	if policy.PriorityHours == nil {
		policy = sla.DefaultPolicy()
	}
	clock := deps.Clock
	if clock == nil {
		clock = systemClock
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		escalations: deps.EscalationRepo,
		users:       deps.UserRepo,
		dispatcher:  deps.Dispatcher,
		policy:      policy,
		side:        deps.SideEffects,
		now:         clock,
	}
}

// Create files a new ticket on behalf of actor.
func (s *TicketService) Create(ctx context.Context, draft TicketDraft, actor domain.Principal) (*domain.Ticket, error) {
	ctx, span := observability.Tracer().Start(ctx, "TicketService.Create")
	defer span.End()

	subject := strings.TrimSpace(draft.Subject)
	description := strings.TrimSpace(draft.Description)
	details := map[string]any{}
	switch {
	case subject == "":
		details["subject"] = "required"
	case len(subject) > maxSubjectLength:
		details["subject"] = fmt.Sprintf("must be at most %d characters", maxSubjectLength)
	}
	switch {
	case description == "":
		details["description"] = "required"
	case len(description) > maxDescriptionLength:
		details["description"] = fmt.Sprintf("must be at most %d characters", maxDescriptionLength)
	}
	if !draft.Category.IsValid() {
		details["category"] = "unknown category"
	}
	if !draft.Priority.IsValid() {
		details["priority"] = "unknown priority"
	}
	if strings.TrimSpace(actor.Email) == "" {
		details["employee_email"] = "unresolved employee identity"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	employee, err := s.employeeSnapshot(ctx, actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ticket := &domain.Ticket{
		ID:            uuid.NewString(),
		ExternalKey:   generateTicketKey(),
		Subject:       subject,
		Description:   description,
		Category:      draft.Category,
		Priority:      draft.Priority,
		Status:        domain.TicketStatusOpen,
		EmployeeEmail: actor.Email,
		EmployeeName:  employee.Name,
		EmployeeCode:  employee.EmployeeCode,
		Department:    employee.Department,
		SLADueDate:    s.policy.DueDate(draft.Category, draft.Priority, now),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	sla.Derive(*ticket, now).Apply(ticket)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		span.RecordError(err)
		return nil, apperrors.FromStore("ticket", err)
	}
	span.SetAttributes(attribute.String("ticket.id", ticket.ID))

	publishEvent(ctx, s.dispatcher, s.side, events.Event{
		Type:      events.EventTicketCreated,
		TicketID:  ticket.ID,
		Actor:     actorOf(actor),
		Timestamp: now,
		Payload:   events.TicketCreatedPayload{Ticket: *ticket},
	})
	return ticket, nil
}

// employeeSnapshot reads the filing employee's profile. Accounts missing from the directory
// keep the session name and no code or department.
func (s *TicketService) employeeSnapshot(ctx context.Context, actor domain.Principal) (domain.UserProfile, error) {
	snapshot := domain.UserProfile{Email: actor.Email, Name: strings.TrimSpace(actor.Name)}
	profile, err := s.users.GetByEmail(ctx, actor.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return snapshot, nil
	}
	if err != nil {
		return snapshot, apperrors.FromStore("user directory", err)
	}
	if name := strings.TrimSpace(profile.Name); name != "" {
		snapshot.Name = name
	}
	snapshot.EmployeeCode = profile.EmployeeCode
	snapshot.Department = profile.Department
	return snapshot, nil
}

// Update applies patch to the ticket after authorization and transition checks.
func (s *TicketService) Update(ctx context.Context, ticketID string, patch domain.TicketPatch, actor domain.Principal) (*domain.Ticket, error) {
	ctx, span := observability.Tracer().Start(ctx, "TicketService.Update", trace.WithAttributes(attribute.String("ticket.id", ticketID)))
	defer span.End()

	patch.AssignedTo = normalizeAssignee(patch.AssignedTo)
	if patch.IsEmpty() {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}

	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}

	if err := authorizeUpdate(ticket, patch, actor); err != nil {
		return nil, err
	}
	if err := validatePatch(ticket, patch); err != nil {
		return nil, err
	}

	now := s.now()
	oldStatus := ticket.Status
	oldValues, newValues := applyPatch(ticket, patch)
	if ticket.Status == domain.TicketStatusClosed && oldStatus != domain.TicketStatusClosed {
		closedAt := now
		ticket.ClosedAt = &closedAt
	}
	sla.Derive(*ticket, now).Apply(ticket)
	ticket.UpdatedAt = now

	if err := s.tickets.Update(ctx, ticket); err != nil {
		span.RecordError(err)
		return nil, apperrors.FromStore("ticket", err)
	}

	event := events.Event{
		Type:      events.EventTicketUpdated,
		TicketID:  ticket.ID,
		Actor:     actorOf(actor),
		Timestamp: now,
		Payload: events.TicketUpdatedPayload{
			Ticket:    *ticket,
			OldValues: oldValues,
			NewValues: newValues,
			Rated:     patch.Rating != nil,
		},
	}

	if oldStatus == domain.TicketStatusEscalated && ticket.Status != domain.TicketStatusEscalated && s.escalations != nil {
		if _, err := s.escalations.ResolveOpen(ctx, ticket.ID, now); err != nil {
			s.side.Record("escalation_resolve", event, err)
		}
	}

	publishEvent(ctx, s.dispatcher, s.side, event)
	return ticket, nil
}

// Get returns a ticket the actor may view, with SLA fields derived as of now.
func (s *TicketService) Get(ctx context.Context, ticketID string, actor domain.Principal) (*domain.Ticket, error) {
	ctx, span := observability.Tracer().Start(ctx, "TicketService.Get")
	defer span.End()

	ticket, err := loadTicket(ctx, s.tickets, ticketID)
	if err != nil {
		return nil, apperrors.FromStore("ticket", err)
	}
	if !actor.CanView(ticket) {
		return nil, apperrors.NewForbidden("ticket not accessible")
	}
	sla.Derive(*ticket, s.now()).Apply(ticket)
	return ticket, nil
}

// ListByEmployee returns tickets filed by email. Only the employee and admins may list them.
func (s *TicketService) ListByEmployee(ctx context.Context, email string, query TicketQuery, actor domain.Principal) (Page[domain.Ticket], error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Page[domain.Ticket]{}, apperrors.NewValidationError("employee email required", nil)
	}
	if email != actor.Email && !actor.IsAdmin() {
		return Page[domain.Ticket]{}, apperrors.NewForbidden("cannot list another employee's tickets")
	}
	filter := query.toFilter()
	filter.EmployeeEmail = &email
	return s.list(ctx, filter, query.PageRequest)
}

// ListByCategory returns tickets in category. HR owners asking for HR or Others see both.
func (s *TicketService) ListByCategory(ctx context.Context, category domain.Category, query TicketQuery, actor domain.Principal) (Page[domain.Ticket], error) {
	if !category.IsValid() {
		return Page[domain.Ticket]{}, apperrors.NewValidationError("unknown category", map[string]any{"category": category})
	}
	if !actor.Role.Manages(category) {
		return Page[domain.Ticket]{}, apperrors.NewForbidden("category not managed by caller")
	}
	filter := query.toFilter()
	filter.Categories = domain.ExpandCategory(actor.Role, category)
	return s.list(ctx, filter, query.PageRequest)
}

// List returns every ticket visible to actor: own tickets for employees, managed categories for owners, all for admins.
func (s *TicketService) List(ctx context.Context, query TicketQuery, actor domain.Principal) (Page[domain.Ticket], error) {
	for _, c := range query.Categories {
		if !c.IsValid() {
			return Page[domain.Ticket]{}, apperrors.NewValidationError("unknown category", map[string]any{"category": c})
		}
	}
	filter := ScopeFor(actor).filter(actor, query.toFilter())
	return s.list(ctx, filter, query.PageRequest)
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter, page PageRequest) (Page[domain.Ticket], error) {
	ctx, span := observability.Tracer().Start(ctx, "TicketService.List")
	defer span.End()

	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return Page[domain.Ticket]{}, apperrors.NewValidationError("unknown status", map[string]any{"status": st})
		}
	}
	for _, p := range filter.Priorities {
		if !p.IsValid() {
			return Page[domain.Ticket]{}, apperrors.NewValidationError("unknown priority", map[string]any{"priority": p})
		}
	}

	page = page.normalize()
	filter.Limit = page.PageSize
	filter.Offset = page.offset()

	items, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return Page[domain.Ticket]{}, apperrors.FromStore("ticket", err)
	}
	now := s.now()
	for i := range items {
		sla.Derive(items[i], now).Apply(&items[i])
	}
	if items == nil {
		items = []domain.Ticket{}
	}
	return Page[domain.Ticket]{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (q TicketQuery) toFilter() repository.TicketFilter {
	return repository.TicketFilter{
		Statuses:    q.Statuses,
		Priorities:  q.Priorities,
		Categories:  q.Categories,
		SearchTerm:  trimmedPtr(q.SearchTerm),
		CreatedFrom: q.CreatedFrom,
		CreatedTo:   q.CreatedTo,
	}
}

func authorizeUpdate(ticket *domain.Ticket, patch domain.TicketPatch, actor domain.Principal) error {
	if patch.TouchesManagedFields() {
		if actor.Role == domain.RoleEmployee {
			return apperrors.NewForbidden("employees cannot change status, priority, category or assignment")
		}
		if !actor.CanManage(ticket) {
			return apperrors.NewForbidden("caller is neither the assignee nor an owner of this category")
		}
	}
	if patch.Rating != nil {
		if !ticket.IsOwnedBy(actor.Email) {
			return apperrors.NewForbidden("only the filing employee may rate a ticket")
		}
		if ticket.Status != domain.TicketStatusClosed {
			return apperrors.NewForbidden("ticket must be closed before it can be rated")
		}
	}
	return nil
}

func validatePatch(ticket *domain.Ticket, patch domain.TicketPatch) error {
	details := map[string]any{}
	if patch.Status != nil {
		next := *patch.Status
		switch {
		case !next.IsValid():
			details["status"] = "unknown status"
		case next == domain.TicketStatusEscalated && ticket.Status != domain.TicketStatusEscalated:
			details["status"] = "use the escalation workflow to escalate a ticket"
		case !domain.CanTransition(ticket.Status, next):
			details["status"] = fmt.Sprintf("cannot move from %s to %s", ticket.Status, next)
		}
	}
	if patch.Priority != nil && !patch.Priority.IsValid() {
		details["priority"] = "unknown priority"
	}
	if patch.Category != nil && !patch.Category.IsValid() {
		details["category"] = "unknown category"
	}
	if patch.Rating != nil && (*patch.Rating < 1 || *patch.Rating > 5) {
		details["rating"] = "must be between 1 and 5"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid ticket update", details)
	}
	return nil
}

// applyPatch merges patch into ticket and returns the previous and new values of changed fields.
func applyPatch(ticket *domain.Ticket, patch domain.TicketPatch) (map[string]any, map[string]any) {
	oldValues := map[string]any{}
	newValues := map[string]any{}

	if patch.Status != nil && *patch.Status != ticket.Status {
		oldValues["status"] = ticket.Status
		newValues["status"] = *patch.Status
		ticket.Status = *patch.Status
	}
	if patch.Priority != nil && *patch.Priority != ticket.Priority {
		oldValues["priority"] = ticket.Priority
		newValues["priority"] = *patch.Priority
		ticket.Priority = *patch.Priority
	}
	if patch.Category != nil && *patch.Category != ticket.Category {
		oldValues["category"] = ticket.Category
		newValues["category"] = *patch.Category
		ticket.Category = *patch.Category
	}
	if patch.AssignedTo != nil {
		next := *patch.AssignedTo
		var current string
		if ticket.AssignedTo != nil {
			current = *ticket.AssignedTo
		}
		if next != current {
			oldValues["assigned_to"] = nullable(current)
			newValues["assigned_to"] = nullable(next)
			if next == "" {
				ticket.AssignedTo = nil
			} else {
				ticket.AssignedTo = &next
			}
		}
	}
	if patch.Rating != nil {
		if ticket.Rating == nil || *ticket.Rating != *patch.Rating {
			if ticket.Rating != nil {
				oldValues["rating"] = *ticket.Rating
			} else {
				oldValues["rating"] = nil
			}
			newValues["rating"] = *patch.Rating
		}
		rating := *patch.Rating
		ticket.Rating = &rating
	}
	return oldValues, newValues
}

// normalizeAssignee lowercases and trims; an empty string clears the assignment.
func normalizeAssignee(value *string) *string {
	if value == nil {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(*value))
	return &normalized
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func generateTicketKey() string {
	return "HD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func actorOf(p domain.Principal) events.Actor {
	return events.Actor{Email: p.Email, Role: p.Role}
}
