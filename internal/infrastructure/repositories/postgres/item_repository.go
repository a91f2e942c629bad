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

const itemColumns = `id, queue_id, text, position, created_at`

type pgItemRepository struct {
	pool *pgxpool.Pool
}

// NewPgItemRepository returns an ItemRepository backed by PostgreSQL.
func NewPgItemRepository(pool *pgxpool.Pool) ports.ItemRepository {
	return &pgItemRepository{pool: pool}
}

func scanItem(row pgx.Row) (*domain.QueueItem, error) {
	var it domain.QueueItem
	if err := row.Scan(&it.ID, &it.QueueID, &it.Text, &it.Position, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *pgItemRepository) Create(ctx context.Context, item *domain.QueueItem) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO queue_items (queue_id, text, position)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		item.QueueID, item.Text, item.Position,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

func (r *pgItemRepository) GetByID(ctx context.Context, id domain.ItemID) (*domain.QueueItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

func (r *pgItemRepository) Update(ctx context.Context, item *domain.QueueItem) error {
	updated, err := scanItem(r.pool.QueryRow(ctx, `
		UPDATE queue_items SET text = $2, position = $3
		WHERE id = $1
		RETURNING `+itemColumns,
		item.ID, item.Text, item.Position,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrItemNotFound
	}
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	*item = *updated
	return nil
}

func (r *pgItemRepository) Delete(ctx context.Context, id domain.ItemID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM queue_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *pgItemRepository) DeleteByQueue(ctx context.Context, queueID domain.QueueID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM queue_items WHERE queue_id = $1`, queueID); err != nil {
		return fmt.Errorf("delete queue items: %w", err)
	}
	return nil
}

func (r *pgItemRepository) ListByQueue(ctx context.Context, queueID domain.QueueID) ([]*domain.QueueItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+itemColumns+`
		FROM queue_items WHERE queue_id = $1
		ORDER BY position, id`, queueID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]*domain.QueueItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *pgItemRepository) MaxPosition(ctx context.Context, queueID domain.QueueID) (int, bool, error) {
	var highest *int
	err := r.pool.QueryRow(ctx, `SELECT MAX(position) FROM queue_items WHERE queue_id = $1`, queueID).Scan(&highest)
	if err != nil {
		return 0, false, fmt.Errorf("max position: %w", err)
	}
	if highest == nil {
		return 0, false, nil
	}
	return *highest, true, nil
}

func (r *pgItemRepository) Head(ctx context.Context, queueID domain.QueueID) (*domain.QueueItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM queue_items WHERE queue_id = $1
		ORDER BY position, id
		LIMIT 1`, queueID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("queue head: %w", err)
	}
	return it, nil
}
