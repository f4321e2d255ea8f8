// Package sla holds the due-date policy and the derived SLA fields of a ticket.
package sla

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// DefaultPriorityHours is the resolution window per priority.
var DefaultPriorityHours = map[domain.TicketPriority]int{
	domain.TicketPriorityCritical: 4,
	domain.TicketPriorityHigh:     24,
	domain.TicketPriorityMedium:   72,
	domain.TicketPriorityLow:      168,
}

// Policy maps priority, optionally refined per category, to a resolution window.
type Policy struct {
	PriorityHours map[domain.TicketPriority]int
	CategoryHours map[domain.Category]map[domain.TicketPriority]int
}

// DefaultPolicy returns the policy with no category overrides.
func DefaultPolicy() Policy {
	hours := make(map[domain.TicketPriority]int, len(DefaultPriorityHours))
	for k, v := range DefaultPriorityHours {
		hours[k] = v
	}
	return Policy{PriorityHours: hours}
}

// Window returns the resolution window for the category/priority pair.
func (p Policy) Window(category domain.Category, priority domain.TicketPriority) time.Duration {
	if byPriority, ok := p.CategoryHours[category]; ok {
		if hours, ok := byPriority[priority]; ok && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
	}
	hours, ok := p.PriorityHours[priority]
	if !ok || hours <= 0 {
		hours = DefaultPriorityHours[priority]
	}
	return time.Duration(hours) * time.Hour
}

// DueDate computes the SLA due date for a ticket created at createdAt.
func (p Policy) DueDate(category domain.Category, priority domain.TicketPriority, createdAt time.Time) time.Time {
	return createdAt.Add(p.Window(category, priority))
}

// ParseCategoryOverrides parses "HR/Critical=2,Accounts/High=12" into per-category hours.
func ParseCategoryOverrides(raw string) (map[domain.Category]map[domain.TicketPriority]int, error) {
	result := map[domain.Category]map[domain.TicketPriority]int{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return result, nil
	}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			return nil, fmt.Errorf("sla override %q: missing '='", item)
		}
		categoryRaw, priorityRaw, ok := strings.Cut(key, "/")
		if !ok {
			return nil, fmt.Errorf("sla override %q: expected category/priority", item)
		}
		category := domain.Category(strings.TrimSpace(categoryRaw))
		priority := domain.TicketPriority(strings.TrimSpace(priorityRaw))
		if !category.IsValid() {
			return nil, fmt.Errorf("sla override %q: unknown category", item)
		}
		if !priority.IsValid() {
			return nil, fmt.Errorf("sla override %q: unknown priority", item)
		}
		hours, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("sla override %q: hours must be a positive integer", item)
		}
		if result[category] == nil {
			result[category] = map[domain.TicketPriority]int{}
		}
		result[category][priority] = hours
	}
	return result, nil
}
