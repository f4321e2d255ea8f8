package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AuditFilter narrows audit queries. A nil TicketID means every ticket.
type AuditFilter struct {
	TicketID *string
	Since    *time.Time
	Limit    int
}

// AuditRepository stores audit entries. Entries are never updated or deleted.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error
	List(ctx context.Context, filter AuditFilter) ([]domain.AuditLogEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLogEntry) error {
	query, args, err := psql.Insert("audit_log_entries").
		Columns("id", "ticket_id", "action", "details", "old_value", "new_value", "performed_by", "performed_by_role", "performed_at").
		Values(entry.ID, entry.TicketID, entry.Action, entry.Details, entry.OldValue, entry.NewValue,
			entry.PerformedBy, entry.PerformedByRole, entry.PerformedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit entry: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]domain.AuditLogEntry, error) {
	builder := psql.Select("id", "ticket_id", "action", "details", "old_value", "new_value", "performed_by", "performed_by_role", "performed_at").
		From("audit_log_entries").
		OrderBy("performed_at ASC", "id ASC")
	if filter.TicketID != nil {
		builder = builder.Where(sq.Eq{"ticket_id": *filter.TicketID})
	}
	if filter.Since != nil {
		builder = builder.Where(sq.GtOrEq{"performed_at": *filter.Since})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list audit entries: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Action,
			&entry.Details,
			&entry.OldValue,
			&entry.NewValue,
			&entry.PerformedBy,
			&entry.PerformedByRole,
			&entry.PerformedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
