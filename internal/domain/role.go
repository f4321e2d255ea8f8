package domain

// Role is the internal permission level mapped from an authenticated identity.
type Role string

const (
	RoleEmployee            Role = "employee"
	RoleITOwner             Role = "it_owner"
	RoleHROwner             Role = "hr_owner"
	RoleAdministrationOwner Role = "administration_owner"
	RoleAccountsOwner       Role = "accounts_owner"
	RoleAdmin               Role = "admin"
)

var ownedCategories = map[Role][]Category{
	RoleITOwner:             {CategoryIT},
	RoleHROwner:             {CategoryHR, CategoryOthers},
	RoleAdministrationOwner: {CategoryAdministration},
	RoleAccountsOwner:       {CategoryAccounts},
	RoleAdmin:               AllCategories,
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	if r == RoleEmployee {
		return true
	}
	_, ok := ownedCategories[r]
	return ok
}

// IsOwner is true for category owners and admins.
func (r Role) IsOwner() bool {
	_, ok := ownedCategories[r]
	return ok
}

// Categories returns the categories a role manages. Employees manage none.
func (r Role) Categories() []Category {
	return append([]Category(nil), ownedCategories[r]...)
}

// Manages reports whether the role has elevated override on tickets in category c.
func (r Role) Manages(c Category) bool {
	for _, candidate := range ownedCategories[r] {
		if candidate == c {
			return true
		}
	}
	return false
}

// ExpandCategory returns the stored categories that satisfy a category query made by role r.
// HR owners asking for HR or Others see both buckets.
func ExpandCategory(r Role, requested Category) []Category {
	if r == RoleHROwner && (requested == CategoryHR || requested == CategoryOthers) {
		return []Category{CategoryHR, CategoryOthers}
	}
	return []Category{requested}
}
