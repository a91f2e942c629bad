package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
)

type MemoryQueueRepository struct {
	queues map[domain.QueueID]domain.Queue
	nextID domain.QueueID
	mu     sync.RWMutex
}

func NewMemoryQueueRepository() ports.QueueRepository {
	return &MemoryQueueRepository{
		queues: make(map[domain.QueueID]domain.Queue),
	}
}

func (r *MemoryQueueRepository) Create(ctx context.Context, queue *domain.Queue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	queue.ID = r.nextID
	if queue.CreatedAt.IsZero() {
		queue.CreatedAt = time.Now().UTC()
	}
	r.queues[queue.ID] = *queue
	return nil
}

func (r *MemoryQueueRepository) GetByID(ctx context.Context, id domain.QueueID) (*domain.Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queue, exists := r.queues[id]
	if !exists {
		return nil, domain.ErrQueueNotFound
	}
	return &queue, nil
}

func (r *MemoryQueueRepository) ListByOwner(ctx context.Context, userID domain.UserID) ([]*domain.Queue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queues := make([]*domain.Queue, 0)
	for _, q := range r.queues {
		if q.UserID == userID {
			q := q
			queues = append(queues, &q)
		}
	}
	sort.Slice(queues, func(i, j int) bool { return queues[i].ID < queues[j].ID })
	return queues, nil
}

func (r *MemoryQueueRepository) Delete(ctx context.Context, id domain.QueueID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.queues[id]; !exists {
		return domain.ErrQueueNotFound
	}
	delete(r.queues, id)
	return nil
}
