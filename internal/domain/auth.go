package domain

// Principal is the authenticated caller resolved from a session token.
type Principal struct {
	Email string
	Name  string
	Role  Role
}

// IsAdmin reports whether the caller has global access.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// CanManage reports whether the caller may change managed fields of t.
func (p Principal) CanManage(t *Ticket) bool {
	if p.Role == RoleEmployee {
		return false
	}
	return t.IsAssignedTo(p.Email) || p.Role.Manages(t.Category)
}

// CanView reports whether the caller may read t.
func (p Principal) CanView(t *Ticket) bool {
	return t.IsOwnedBy(p.Email) || t.IsAssignedTo(p.Email) || p.Role.Manages(t.Category)
}
