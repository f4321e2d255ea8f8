package http

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type memTickets struct {
	mu    sync.Mutex
	items map[string]domain.Ticket
}

func (r *memTickets) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[t.ID] = *t
	return nil
}

func (r *memTickets) Update(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.items[t.ID] = *t
	return nil
}

func (r *memTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (r *memTickets) matching(f repository.TicketFilter) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, t := range r.items {
		if f.EmployeeEmail != nil && t.EmployeeEmail != *f.EmployeeEmail {
			continue
		}
		if len(f.Categories) > 0 && !containsCategory(f.Categories, t.Category) {
			continue
		}
		if len(f.IDs) > 0 && !containsID(f.IDs, t.ID) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memTickets) List(_ context.Context, f repository.TicketFilter) ([]domain.Ticket, int, error) {
	all := r.matching(f)
	start := min(f.Offset, len(all))
	end := len(all)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(all))
	}
	return all[start:end], len(all), nil
}

func (r *memTickets) StatusCounts(_ context.Context, f repository.TicketFilter) (map[domain.TicketStatus]int, error) {
	counts := map[domain.TicketStatus]int{}
	for _, t := range r.matching(f) {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *memTickets) CategoryStats(_ context.Context, f repository.TicketFilter, now time.Time) ([]repository.CategoryStats, error) {
	byCategory := map[domain.Category]*repository.CategoryStats{}
	for _, t := range r.matching(f) {
		stats, ok := byCategory[t.Category]
		if !ok {
			stats = &repository.CategoryStats{Category: t.Category}
			byCategory[t.Category] = stats
		}
		stats.Total++
		if t.Status == domain.TicketStatusClosed {
			stats.Closed++
		} else {
			stats.Open++
		}
		if t.SLAViolated || (t.Status != domain.TicketStatusClosed && t.SLADueDate.Before(now)) {
			stats.Violated++
		}
	}
	out := make([]repository.CategoryStats, 0, len(byCategory))
	for _, stats := range byCategory {
		out = append(out, *stats)
	}
	return out, nil
}

func containsCategory(list []domain.Category, c domain.Category) bool {
	for _, item := range list {
		if item == c {
			return true
		}
	}
	return false
}

func containsID(list []string, id string) bool {
	for _, item := range list {
		if item == id {
			return true
		}
	}
	return false
}

type memEscalations struct {
	mu      sync.Mutex
	tickets *memTickets
	items   []domain.Escalation
}

func (r *memEscalations) CreateWithTicketUpdate(ctx context.Context, e *domain.Escalation, t *domain.Ticket) error {
	if err := r.tickets.Update(ctx, t); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *e)
	return nil
}

func (r *memEscalations) ListByTicket(_ context.Context, ticketID string) ([]domain.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Escalation
	for _, e := range r.items {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEscalations) ResolveOpen(_ context.Context, ticketID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.items {
		if r.items[i].TicketID == ticketID && !r.items[i].Resolved {
			r.items[i].Resolved = true
			r.items[i].ResolvedAt = &at
			n++
		}
	}
	return n, nil
}

type memAudit struct {
	mu    sync.Mutex
	items []domain.AuditLogEntry
}

func (r *memAudit) Create(_ context.Context, e *domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *e)
	return nil
}

func (r *memAudit) List(_ context.Context, f repository.AuditFilter) ([]domain.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.AuditLogEntry
	for _, e := range r.items {
		if f.TicketID != nil && e.TicketID != *f.TicketID {
			continue
		}
		if f.Since != nil && e.PerformedAt.Before(*f.Since) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type memChat struct {
	mu    sync.Mutex
	items []domain.ChatMessage
}

func (r *memChat) Create(_ context.Context, m *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *m)
	return nil
}

func (r *memChat) GetByClientID(_ context.Context, ticketID, clientID string) (*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.items {
		if m.TicketID == ticketID && m.ClientMessageID != nil && *m.ClientMessageID == clientID {
			found := m
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memChat) ListByTicket(_ context.Context, ticketID string, after *time.Time, _ int) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatMessage
	for _, m := range r.items {
		if m.TicketID != ticketID || (after != nil && !m.CreatedAt.After(*after)) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

type memUsers struct {
	profiles map[string]domain.UserProfile
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*domain.UserProfile, error) {
	p, ok := r.profiles[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (r *memUsers) ListByRole(_ context.Context, role domain.Role) ([]domain.UserProfile, error) {
	var out []domain.UserProfile
	for _, p := range r.profiles {
		if p.Role == role && p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memUsers) Upsert(_ context.Context, p *domain.UserProfile) error {
	r.profiles[p.Email] = *p
	return nil
}
