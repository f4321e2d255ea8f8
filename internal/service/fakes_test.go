package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

var errStoreDown = errors.New("store down")

type fakeTicketRepo struct {
	mu        sync.Mutex
	items     map[string]domain.Ticket
	failWrite error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{items: map[string]domain.Ticket{}}
}

func (r *fakeTicketRepo) Create(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	r.items[t.ID] = cloneTicket(*t)
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return r.failWrite
	}
	if _, ok := r.items[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.items[t.ID] = cloneTicket(*t)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := cloneTicket(t)
	return &c, nil
}

func (r *fakeTicketRepo) stored(id string) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneTicket(r.items[id])
}

func (r *fakeTicketRepo) matching(filter repository.TicketFilter) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, t := range r.items {
		if matchesFilter(t, filter) {
			result = append(result, cloneTicket(t))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (r *fakeTicketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	all := r.matching(filter)
	total := len(all)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	start := filter.Offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *fakeTicketRepo) StatusCounts(_ context.Context, filter repository.TicketFilter) (map[domain.TicketStatus]int, error) {
	counts := map[domain.TicketStatus]int{}
	for _, t := range r.matching(filter) {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *fakeTicketRepo) CategoryStats(_ context.Context, filter repository.TicketFilter, now time.Time) ([]repository.CategoryStats, error) {
	type acc struct {
		stats               repository.CategoryStats
		respSum, resSum     float64
		respCount, resCount int
	}
	byCategory := map[domain.Category]*acc{}
	for _, t := range r.matching(filter) {
		a, ok := byCategory[t.Category]
		if !ok {
			a = &acc{stats: repository.CategoryStats{Category: t.Category}}
			byCategory[t.Category] = a
		}
		a.stats.Total++
		if t.Status == domain.TicketStatusClosed {
			a.stats.Closed++
			if t.SLAViolated {
				a.stats.Violated++
			}
		} else {
			a.stats.Open++
			if t.SLADueDate.Before(now) {
				a.stats.Violated++
			}
		}
		if t.ResponseTime != nil {
			a.respSum += *t.ResponseTime
			a.respCount++
		}
		if t.ResolutionTime != nil {
			a.resSum += *t.ResolutionTime
			a.resCount++
		}
	}
	var result []repository.CategoryStats
	for _, a := range byCategory {
		a.stats.Responded = a.respCount
		a.stats.Resolved = a.resCount
		if a.respCount > 0 {
			avg := a.respSum / float64(a.respCount)
			a.stats.AvgResponseHours = &avg
		}
		if a.resCount > 0 {
			avg := a.resSum / float64(a.resCount)
			a.stats.AvgResolutionHours = &avg
		}
		result = append(result, a.stats)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result, nil
}

func matchesFilter(t domain.Ticket, f repository.TicketFilter) bool {
	if len(f.IDs) > 0 && !containsString(f.IDs, t.ID) {
		return false
	}
	if f.EmployeeEmail != nil && t.EmployeeEmail != *f.EmployeeEmail {
		return false
	}
	if f.AssignedTo != nil && !t.IsAssignedTo(*f.AssignedTo) {
		return false
	}
	if len(f.Categories) > 0 {
		found := false
		for _, c := range f.Categories {
			if c == t.Category {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if s == t.Status {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Priorities) > 0 {
		found := false
		for _, p := range f.Priorities {
			if p == t.Priority {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.SearchTerm != nil {
		term := strings.ToLower(*f.SearchTerm)
		if !strings.Contains(strings.ToLower(t.Subject), term) && !strings.Contains(strings.ToLower(t.Description), term) {
			return false
		}
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	c := t
	if t.AssignedTo != nil {
		v := *t.AssignedTo
		c.AssignedTo = &v
	}
	if t.ResponseTime != nil {
		v := *t.ResponseTime
		c.ResponseTime = &v
	}
	if t.ResolutionTime != nil {
		v := *t.ResolutionTime
		c.ResolutionTime = &v
	}
	if t.Rating != nil {
		v := *t.Rating
		c.Rating = &v
	}
	if t.EscalationReason != nil {
		v := *t.EscalationReason
		c.EscalationReason = &v
	}
	if t.EscalationDate != nil {
		v := *t.EscalationDate
		c.EscalationDate = &v
	}
	if t.ClosedAt != nil {
		v := *t.ClosedAt
		c.ClosedAt = &v
	}
	return c
}

type fakeEscalationRepo struct {
	mu      sync.Mutex
	tickets *fakeTicketRepo
	items   []domain.Escalation
	fail    error
}

func (r *fakeEscalationRepo) CreateWithTicketUpdate(ctx context.Context, e *domain.Escalation, t *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if err := r.tickets.Update(ctx, t); err != nil {
		return err
	}
	r.items = append(r.items, *e)
	return nil
}

func (r *fakeEscalationRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Escalation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Escalation
	for _, e := range r.items {
		if e.TicketID == ticketID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (r *fakeEscalationRepo) ResolveOpen(_ context.Context, ticketID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.items {
		if r.items[i].TicketID == ticketID && !r.items[i].Resolved {
			r.items[i].Resolved = true
			resolvedAt := at
			r.items[i].ResolvedAt = &resolvedAt
			n++
		}
	}
	return n, nil
}

type fakeAuditRepo struct {
	mu    sync.Mutex
	items []domain.AuditLogEntry
	fail  error
}

func (r *fakeAuditRepo) Create(_ context.Context, e *domain.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.items = append(r.items, *e)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, f repository.AuditFilter) ([]domain.AuditLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.AuditLogEntry
	for _, e := range r.items {
		if f.TicketID != nil && e.TicketID != *f.TicketID {
			continue
		}
		if f.Since != nil && e.PerformedAt.Before(*f.Since) {
			continue
		}
		result = append(result, e)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].PerformedAt.Before(result[j].PerformedAt) })
	return result, nil
}

func (r *fakeAuditRepo) byTicket(ticketID string) []domain.AuditLogEntry {
	entries, _ := r.List(context.Background(), repository.AuditFilter{TicketID: &ticketID})
	return entries
}

type fakeChatRepo struct {
	mu    sync.Mutex
	items []domain.ChatMessage
}

func (r *fakeChatRepo) Create(_ context.Context, m *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *m)
	return nil
}

func (r *fakeChatRepo) GetByClientID(_ context.Context, ticketID, clientID string) (*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.items {
		if m.TicketID == ticketID && m.ClientMessageID != nil && *m.ClientMessageID == clientID {
			c := m
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeChatRepo) ListByTicket(_ context.Context, ticketID string, after *time.Time, limit int) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.ChatMessage
	for _, m := range r.items {
		if m.TicketID != ticketID {
			continue
		}
		if after != nil && !m.CreatedAt.After(*after) {
			continue
		}
		result = append(result, m)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

type fakeUserRepo struct {
	users []domain.UserProfile
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.UserProfile, error) {
	for _, u := range r.users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.UserProfile, error) {
	var result []domain.UserProfile
	for _, u := range r.users {
		if u.Role == role && u.Active {
			result = append(result, u)
		}
	}
	return result, nil
}

func (r *fakeUserRepo) Upsert(_ context.Context, u *domain.UserProfile) error {
	r.users = append(r.users, *u)
	return nil
}

type fakeUploader struct {
	key         string
	contentType string
	content     []byte
}

func (u *fakeUploader) Put(_ context.Context, key, contentType string, content []byte) (string, error) {
	u.key = key
	u.contentType = contentType
	u.content = content
	return "https://objects.example.com/" + key + "?signature=abc", nil
}

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
