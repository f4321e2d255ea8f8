package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var userColumns = []string{"email", "name", "role", "employee_code", "department", "active_flag", "created_at", "updated_at"}

// UserRepository reads and maintains the permissions directory.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.UserProfile, error)
	Upsert(ctx context.Context, user *domain.UserProfile) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.UserProfile, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(sq.Eq{"email": email}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get user: %w", err)
	}

	var user domain.UserProfile
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&user.Email,
		&user.Name,
		&user.Role,
		&user.EmployeeCode,
		&user.Department,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListByRole returns active users holding role, ordered by email.
func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.UserProfile, error) {
	query, args, err := psql.Select(userColumns...).
		From("users").
		Where(sq.Eq{"role": role, "active_flag": true}).
		OrderBy("email").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list users: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var result []domain.UserProfile
	for rows.Next() {
		var user domain.UserProfile
		if err := rows.Scan(
			&user.Email,
			&user.Name,
			&user.Role,
			&user.EmployeeCode,
			&user.Department,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result = append(result, user)
	}
	return result, rows.Err()
}

func (r *userRepository) Upsert(ctx context.Context, user *domain.UserProfile) error {
	query, args, err := psql.Insert("users").
		Columns("email", "name", "role", "employee_code", "department", "active_flag").
		Values(user.Email, user.Name, user.Role, user.EmployeeCode, user.Department, user.Active).
		Suffix("ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, " +
			"employee_code = EXCLUDED.employee_code, department = EXCLUDED.department, " +
			"active_flag = EXCLUDED.active_flag, updated_at = NOW() RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert user: %w", err)
	}
	return r.pool.QueryRow(ctx, query, args...).Scan(&user.CreatedAt, &user.UpdatedAt)
}
