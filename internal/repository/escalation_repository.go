package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EscalationRepository persists escalation records.
type EscalationRepository interface {
	// CreateWithTicketUpdate inserts the escalation and writes the ticket in one transaction.
	CreateWithTicketUpdate(ctx context.Context, escalation *domain.Escalation, ticket *domain.Ticket) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Escalation, error)
	ResolveOpen(ctx context.Context, ticketID string, at time.Time) (int64, error)
}

type escalationRepository struct {
	pool *pgxpool.Pool
}

// NewEscalationRepository builds repository.
func NewEscalationRepository(pool *pgxpool.Pool) EscalationRepository {
	return &escalationRepository{pool: pool}
}

func (r *escalationRepository) CreateWithTicketUpdate(ctx context.Context, escalation *domain.Escalation, ticket *domain.Ticket) error {
	query, args, err := psql.Insert("escalations").
		Columns("id", "ticket_id", "reason", "description", "timeline", "escalated_by", "resolved", "resolved_at", "created_at").
		Values(escalation.ID, escalation.TicketID, escalation.Reason, escalation.Description, escalation.Timeline,
			escalation.EscalatedBy, escalation.Resolved, escalation.ResolvedAt, escalation.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert escalation: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("insert escalation: %w", err)
		}
		return updateTicket(ctx, tx, ticket)
	})
}

func (r *escalationRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Escalation, error) {
	query, args, err := psql.Select("id", "ticket_id", "reason", "description", "timeline", "escalated_by", "resolved", "resolved_at", "created_at").
		From("escalations").
		Where(sq.Eq{"ticket_id": ticketID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list escalations: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}
	defer rows.Close()

	var result []domain.Escalation
	for rows.Next() {
		var e domain.Escalation
		if err := rows.Scan(&e.ID, &e.TicketID, &e.Reason, &e.Description, &e.Timeline,
			&e.EscalatedBy, &e.Resolved, &e.ResolvedAt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan escalation: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *escalationRepository) ResolveOpen(ctx context.Context, ticketID string, at time.Time) (int64, error) {
	query, args, err := psql.Update("escalations").
		Set("resolved", true).
		Set("resolved_at", at).
		Where(sq.Eq{"ticket_id": ticketID, "resolved": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build resolve escalations: %w", err)
	}
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("resolve escalations: %w", err)
	}
	return cmd.RowsAffected(), nil
}
