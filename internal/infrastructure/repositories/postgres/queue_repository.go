package postgres

import (
	"context"
	"errors"
	"fmt"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgQueueRepository struct {
	pool *pgxpool.Pool
}

// NewPgQueueRepository returns a QueueRepository backed by PostgreSQL.
func NewPgQueueRepository(pool *pgxpool.Pool) ports.QueueRepository {
	return &pgQueueRepository{pool: pool}
}

func (r *pgQueueRepository) Create(ctx context.Context, queue *domain.Queue) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO queues (name, user_id)
		VALUES ($1, $2)
		RETURNING id, created_at`,
		queue.Name, queue.UserID,
	).Scan(&queue.ID, &queue.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert queue: %w", err)
	}
	return nil
}

func (r *pgQueueRepository) GetByID(ctx context.Context, id domain.QueueID) (*domain.Queue, error) {
	var q domain.Queue
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, user_id, created_at
		FROM queues WHERE id = $1`, id,
	).Scan(&q.ID, &q.Name, &q.UserID, &q.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrQueueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get queue: %w", err)
	}
	return &q, nil
}

func (r *pgQueueRepository) ListByOwner(ctx context.Context, userID domain.UserID) ([]*domain.Queue, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, user_id, created_at
		FROM queues WHERE user_id = $1
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	defer rows.Close()

	queues := make([]*domain.Queue, 0)
	for rows.Next() {
		var q domain.Queue
		if err := rows.Scan(&q.ID, &q.Name, &q.UserID, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan queue: %w", err)
		}
		queues = append(queues, &q)
	}
	return queues, rows.Err()
}

// Delete removes the queue; its items go with it through ON DELETE CASCADE.
func (r *pgQueueRepository) Delete(ctx context.Context, id domain.QueueID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM queues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete queue: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQueueNotFound
	}
	return nil
}
