package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

var chatColumns = []string{"id", "ticket_id", "client_message_id", "sender_email", "sender_role", "content", "created_at"}

// ChatRepository persists ticket conversation threads.
type ChatRepository interface {
	Create(ctx context.Context, msg *domain.ChatMessage) error
	GetByClientID(ctx context.Context, ticketID, clientMessageID string) (*domain.ChatMessage, error)
	ListByTicket(ctx context.Context, ticketID string, after *time.Time, limit int) ([]domain.ChatMessage, error)
}

type chatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository constructs repository.
func NewChatRepository(pool *pgxpool.Pool) ChatRepository {
	return &chatRepository{pool: pool}
}

func (r *chatRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	query, args, err := psql.Insert("chat_messages").
		Columns(chatColumns...).
		Values(msg.ID, msg.TicketID, msg.ClientMessageID, msg.SenderEmail, msg.SenderRole, msg.Content, msg.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert chat message: %w", err)
	}
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

func (r *chatRepository) GetByClientID(ctx context.Context, ticketID, clientMessageID string) (*domain.ChatMessage, error) {
	query, args, err := psql.Select(chatColumns...).
		From("chat_messages").
		Where(sq.Eq{"ticket_id": ticketID, "client_message_id": clientMessageID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get chat message: %w", err)
	}
	var msg domain.ChatMessage
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&msg.ID, &msg.TicketID, &msg.ClientMessageID, &msg.SenderEmail, &msg.SenderRole, &msg.Content, &msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByTicket returns messages in posting order, optionally only those after a cursor.
func (r *chatRepository) ListByTicket(ctx context.Context, ticketID string, after *time.Time, limit int) ([]domain.ChatMessage, error) {
	builder := psql.Select(chatColumns...).
		From("chat_messages").
		Where(sq.Eq{"ticket_id": ticketID}).
		OrderBy("created_at ASC", "id ASC")
	if after != nil {
		builder = builder.Where(sq.Gt{"created_at": *after})
	}
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list chat messages: %w", err)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	var result []domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.TicketID, &msg.ClientMessageID, &msg.SenderEmail, &msg.SenderRole, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
