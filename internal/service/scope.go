package service

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Scope describes what a principal may see and do across listings.
type Scope struct {
	Role domain.Role
	// Categories is empty for employees and every category for admins.
	Categories []domain.Category
	// OwnOnly restricts listings to tickets filed by the caller.
	OwnOnly bool
	// Elevated is true when the caller may override managed fields in Categories.
	Elevated          bool
	CanExportExtended bool
	CanViewAllAudit   bool
}

// ScopeFor derives the visibility scope of principal.
func ScopeFor(principal domain.Principal) Scope {
	scope := Scope{Role: principal.Role}
	switch {
	case principal.IsAdmin():
		scope.Categories = append([]domain.Category(nil), domain.AllCategories...)
		scope.Elevated = true
		scope.CanExportExtended = true
		scope.CanViewAllAudit = true
	case principal.Role.IsOwner():
		scope.Categories = principal.Role.Categories()
		scope.Elevated = true
	default:
		scope.OwnOnly = true
	}
	return scope
}

// filter narrows a repository filter to the tickets the principal may list.
func (s Scope) filter(principal domain.Principal, base repository.TicketFilter) repository.TicketFilter {
	if s.OwnOnly {
		email := principal.Email
		base.EmployeeEmail = &email
		return base
	}
	if s.Role == domain.RoleAdmin {
		return base
	}
	if len(base.Categories) == 0 {
		base.Categories = s.Categories
		return base
	}
	allowed := map[domain.Category]bool{}
	for _, c := range s.Categories {
		allowed[c] = true
	}
	var narrowed []domain.Category
	for _, c := range base.Categories {
		if allowed[c] {
			narrowed = append(narrowed, c)
		}
	}
	if len(narrowed) == 0 {
		// Requested only categories outside the scope; keep the query empty.
		narrowed = []domain.Category{""}
	}
	base.Categories = narrowed
	return base
}
