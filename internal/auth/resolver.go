package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// RoleCache memoizes role lookups.
type RoleCache interface {
	GetRole(ctx context.Context, email string) (domain.Role, bool, error)
	SetRole(ctx context.Context, email string, role domain.Role) error
}

// RoleResolver maps an authenticated email to its internal role.
type RoleResolver struct {
	users  repository.UserRepository
	cache  RoleCache
	logger *zap.Logger
}

// NewRoleResolver constructs a resolver. cache may be nil.
func NewRoleResolver(users repository.UserRepository, cache RoleCache, logger *zap.Logger) *RoleResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleResolver{users: users, cache: cache, logger: logger}
}

// Resolve returns the role for email. Unknown or inactive identities are employees.
func (r *RoleResolver) Resolve(ctx context.Context, email string) (domain.Role, error) {
	if r.cache != nil {
		role, ok, err := r.cache.GetRole(ctx, email)
		if err != nil {
			r.logger.Warn("role cache read failed", zap.String("email", email), zap.Error(err))
		} else if ok && role.IsValid() {
			return role, nil
		}
	}

	role := domain.RoleEmployee
	user, err := r.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return "", err
	case user.Active && user.Role.IsValid():
		role = user.Role
	}

	if r.cache != nil {
		if err := r.cache.SetRole(ctx, email, role); err != nil {
			r.logger.Warn("role cache write failed", zap.String("email", email), zap.Error(err))
		}
	}
	return role, nil
}
