package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var ticketColumns = []string{
	"id", "external_key", "subject", "description", "category", "priority", "status",
	"employee_email", "employee_name", "employee_code", "department", "assigned_to",
	"sla_due_date", "response_time", "resolution_time", "sla_violated", "rating",
	"escalation_reason", "escalation_date", "created_at", "updated_at", "closed_at",
}

// TicketFilter captures list parameters.
type TicketFilter struct {
	IDs           []string
	EmployeeEmail *string
	AssignedTo    *string
	Categories    []domain.Category
	Statuses      []domain.TicketStatus
	Priorities    []domain.TicketPriority
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// CategoryStats aggregates SLA figures for one category.
type CategoryStats struct {
	Category domain.Category
	Total    int
	Open     int
	Closed   int
	Violated int
	// Responded and Resolved count the rows behind each average.
	Responded          int
	Resolved           int
	AvgResponseHours   *float64
	AvgResolutionHours *float64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	StatusCounts(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int, error)
	CategoryStats(ctx context.Context, filter TicketFilter, now time.Time) ([]CategoryStats, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query, args, err := psql.Insert("tickets").
		Columns(ticketColumns...).
		Values(
			ticket.ID, ticket.ExternalKey, ticket.Subject, ticket.Description, ticket.Category,
			ticket.Priority, ticket.Status, ticket.EmployeeEmail, ticket.EmployeeName,
			ticket.EmployeeCode, ticket.Department, ticket.AssignedTo, ticket.SLADueDate,
			ticket.ResponseTime, ticket.ResolutionTime, ticket.SLAViolated, ticket.Rating,
			ticket.EscalationReason, ticket.EscalationDate, ticket.CreatedAt, ticket.UpdatedAt,
			ticket.ClosedAt,
		).ToSql()
	if err != nil {
		return fmt.Errorf("build insert ticket: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	return updateTicket(ctx, r.pool, ticket)
}

// updateTicket writes every mutable column. created_at, sla_due_date and employee_email are never touched.
func updateTicket(ctx context.Context, db execer, ticket *domain.Ticket) error {
	query, args, err := psql.Update("tickets").
		SetMap(map[string]any{
			"category":          ticket.Category,
			"priority":          ticket.Priority,
			"status":            ticket.Status,
			"assigned_to":       ticket.AssignedTo,
			"response_time":     ticket.ResponseTime,
			"resolution_time":   ticket.ResolutionTime,
			"sla_violated":      ticket.SLAViolated,
			"rating":            ticket.Rating,
			"escalation_reason": ticket.EscalationReason,
			"escalation_date":   ticket.EscalationDate,
			"updated_at":        ticket.UpdatedAt,
			"closed_at":         ticket.ClosedAt,
		}).
		Where(sq.Eq{"id": ticket.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update ticket: %w", err)
	}
	cmd, err := db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query, args, err := psql.Select(ticketColumns...).From("tickets").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get ticket: %w", err)
	}
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	countQuery, countArgs, err := applyTicketFilter(psql.Select("COUNT(*)").From("tickets"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count tickets: %w", err)
	}
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query, args, err := applyTicketFilter(psql.Select(ticketColumns...).From("tickets"), filter).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list tickets: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) StatusCounts(ctx context.Context, filter TicketFilter) (map[domain.TicketStatus]int, error) {
	query, args, err := applyTicketFilter(psql.Select("status", "COUNT(*)").From("tickets"), filter).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status counts: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := map[domain.TicketStatus]int{}
	for rows.Next() {
		var status domain.TicketStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func (r *ticketRepository) CategoryStats(ctx context.Context, filter TicketFilter, now time.Time) ([]CategoryStats, error) {
	closed := domain.TicketStatusClosed
	builder := psql.Select("category", "COUNT(*)").
		Column(sq.Expr("COUNT(*) FILTER (WHERE status <> ?)", closed)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE status = ?)", closed)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE (status = ? AND sla_violated) OR (status <> ? AND sla_due_date < ?))", closed, closed, now)).
		Column("COUNT(response_time)").
		Column("COUNT(resolution_time)").
		Column("AVG(response_time)").
		Column("AVG(resolution_time)").
		From("tickets")

	query, args, err := applyTicketFilter(builder, filter).GroupBy("category").OrderBy("category").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category stats: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	var result []CategoryStats
	for rows.Next() {
		var s CategoryStats
		if err := rows.Scan(&s.Category, &s.Total, &s.Open, &s.Closed, &s.Violated, &s.Responded, &s.Resolved, &s.AvgResponseHours, &s.AvgResolutionHours); err != nil {
			return nil, fmt.Errorf("scan category stats: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// likeEscaper makes user input match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func applyTicketFilter(b sq.SelectBuilder, filter TicketFilter) sq.SelectBuilder {
	if len(filter.IDs) > 0 {
		b = b.Where(sq.Eq{"id": filter.IDs})
	}
	if filter.EmployeeEmail != nil {
		b = b.Where(sq.Eq{"employee_email": *filter.EmployeeEmail})
	}
	if filter.AssignedTo != nil {
		b = b.Where(sq.Eq{"assigned_to": *filter.AssignedTo})
	}
	if len(filter.Categories) > 0 {
		b = b.Where(sq.Eq{"category": filter.Categories})
	}
	if len(filter.Statuses) > 0 {
		b = b.Where(sq.Eq{"status": filter.Statuses})
	}
	if len(filter.Priorities) > 0 {
		b = b.Where(sq.Eq{"priority": filter.Priorities})
	}
	if filter.CreatedFrom != nil {
		b = b.Where(sq.GtOrEq{"created_at": *filter.CreatedFrom})
	}
	if filter.CreatedTo != nil {
		b = b.Where(sq.LtOrEq{"created_at": *filter.CreatedTo})
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		pattern := "%" + likeEscaper.Replace(strings.TrimSpace(*filter.SearchTerm)) + "%"
		b = b.Where(sq.Or{sq.ILike{"subject": pattern}, sq.ILike{"description": pattern}})
	}
	return b
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var rating *int16
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.EmployeeEmail,
		&ticket.EmployeeName,
		&ticket.EmployeeCode,
		&ticket.Department,
		&ticket.AssignedTo,
		&ticket.SLADueDate,
		&ticket.ResponseTime,
		&ticket.ResolutionTime,
		&ticket.SLAViolated,
		&rating,
		&ticket.EscalationReason,
		&ticket.EscalationDate,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	if rating != nil {
		value := int(*rating)
		ticket.Rating = &value
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
