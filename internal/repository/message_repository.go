package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/storefront/internal/domain"
)

// MessageRepository stores contact messages and staff replies.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	List(ctx context.Context, filter MessageFilter) ([]domain.Message, error)
	AddReply(ctx context.Context, reply *domain.MessageReply) error
}

// MessageFilter narrows message listings.
type MessageFilter struct {
	Status *domain.MessageStatus
	Limit  int
	Offset int
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (name, email, subject, body, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		msg.Name,
		msg.Email,
		msg.Subject,
		msg.Body,
		msg.Status,
	).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)
	return mapPgError(err)
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	const query = `
        SELECT id, name, email, subject, body, status, created_at, updated_at
        FROM messages WHERE id=$1`
	var msg domain.Message
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID,
		&msg.Name,
		&msg.Email,
		&msg.Subject,
		&msg.Body,
		&msg.Status,
		&msg.CreatedAt,
		&msg.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}

	const repliesQuery = `
        SELECT id, message_id, staff_id, body, created_at
        FROM message_replies WHERE message_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, repliesQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var reply domain.MessageReply
		if err := rows.Scan(
			&reply.ID,
			&reply.MessageID,
			&reply.StaffID,
			&reply.Body,
			&reply.CreatedAt,
		); err != nil {
			return nil, err
		}
		msg.Replies = append(msg.Replies, reply)
	}
	return &msg, rows.Err()
}

func (r *messageRepository) List(ctx context.Context, filter MessageFilter) ([]domain.Message, error) {
	query := `
        SELECT id, name, email, subject, body, status, created_at, updated_at
        FROM messages`
	args := []any{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" WHERE status=$%d", len(args))
	}
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.Name,
			&msg.Email,
			&msg.Subject,
			&msg.Body,
			&msg.Status,
			&msg.CreatedAt,
			&msg.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *messageRepository) AddReply(ctx context.Context, reply *domain.MessageReply) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, `UPDATE messages SET status=$1, updated_at=NOW() WHERE id=$2`,
		domain.MessageStatusReplied, reply.MessageID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	const query = `
        INSERT INTO message_replies (message_id, staff_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, query, reply.MessageID, reply.StaffID, reply.Body).Scan(&reply.ID, &reply.CreatedAt); err != nil {
		return mapPgError(err)
	}
	return tx.Commit(ctx)
}
