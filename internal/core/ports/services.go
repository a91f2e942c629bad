package ports

import (
	"context"

	"queuecast/internal/core/domain"
)

type QueueService interface {
	CreateQueue(ctx context.Context, name string, caller domain.UserID) (*domain.Queue, error)
	ListQueues(ctx context.Context, caller domain.UserID) ([]*domain.Queue, error)
	GetQueue(ctx context.Context, id domain.QueueID) (*domain.Queue, error)
	DeleteQueue(ctx context.Context, id domain.QueueID, caller domain.UserID) (*domain.Queue, error)
	ListItems(ctx context.Context, queueID domain.QueueID) ([]*domain.QueueItem, error)
	AddItem(ctx context.Context, queueID domain.QueueID, caller domain.UserID, in domain.ItemInput) (*domain.QueueItem, error)
	AddItemToEnd(ctx context.Context, queueID domain.QueueID, caller domain.UserID, text string) (*domain.QueueItem, error)
	UpdateItem(ctx context.Context, itemID domain.ItemID, caller domain.UserID, in domain.ItemInput) (*domain.QueueItem, error)
	RemoveItem(ctx context.Context, itemID domain.ItemID, caller domain.UserID) error
	// PopHead returns nil, nil when the queue is empty.
	PopHead(ctx context.Context, queueID domain.QueueID, caller domain.UserID) (*domain.QueueItem, error)
}

type UserService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, string, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	VerifyToken(ctx context.Context, token string) (*domain.User, error)
}

// Broadcaster pushes the full ordered item list of a queue to its viewers.
type Broadcaster interface {
	Broadcast(ctx context.Context, queueID domain.QueueID, items []*domain.QueueItem)
}

// QueueLocker serializes mutations of a single queue. The returned release
// func must be called exactly once.
type QueueLocker interface {
	Lock(ctx context.Context, queueID domain.QueueID) (release func(), err error)
}
