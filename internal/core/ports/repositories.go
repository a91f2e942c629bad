package ports

import (
	"context"

	"queuecast/internal/core/domain"
)

// QueueRepository stores queues. Create assigns the ID and CreatedAt.
type QueueRepository interface {
	Create(ctx context.Context, queue *domain.Queue) error
	GetByID(ctx context.Context, id domain.QueueID) (*domain.Queue, error)
	ListByOwner(ctx context.Context, userID domain.UserID) ([]*domain.Queue, error)
	Delete(ctx context.Context, id domain.QueueID) error
}

// ItemRepository stores queue items. ListByQueue and Head honour the
// (position, id) ordering.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.QueueItem) error
	GetByID(ctx context.Context, id domain.ItemID) (*domain.QueueItem, error)
	Update(ctx context.Context, item *domain.QueueItem) error
	Delete(ctx context.Context, id domain.ItemID) error
	DeleteByQueue(ctx context.Context, queueID domain.QueueID) error
	ListByQueue(ctx context.Context, queueID domain.QueueID) ([]*domain.QueueItem, error)
	// MaxPosition returns the highest position in the queue, and false when
	// the queue has no items.
	MaxPosition(ctx context.Context, queueID domain.QueueID) (int, bool, error)
	// Head returns the first item or domain.ErrItemNotFound when empty.
	Head(ctx context.Context, queueID domain.QueueID) (*domain.QueueItem, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
