package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
)

type MemoryItemRepository struct {
	items  map[domain.ItemID]domain.QueueItem
	nextID domain.ItemID
	mu     sync.RWMutex
}

func NewMemoryItemRepository() ports.ItemRepository {
	return &MemoryItemRepository{
		items: make(map[domain.ItemID]domain.QueueItem),
	}
}

func (r *MemoryItemRepository) Create(ctx context.Context, item *domain.QueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	item.ID = r.nextID
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryItemRepository) GetByID(ctx context.Context, id domain.ItemID) (*domain.QueueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (r *MemoryItemRepository) Update(ctx context.Context, item *domain.QueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.items[item.ID]
	if !exists {
		return domain.ErrItemNotFound
	}
	stored.Text = item.Text
	stored.Position = item.Position
	r.items[item.ID] = stored
	*item = stored
	return nil
}

func (r *MemoryItemRepository) Delete(ctx context.Context, id domain.ItemID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return domain.ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryItemRepository) DeleteByQueue(ctx context.Context, queueID domain.QueueID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, item := range r.items {
		if item.QueueID == queueID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *MemoryItemRepository) ListByQueue(ctx context.Context, queueID domain.QueueID) ([]*domain.QueueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedLocked(queueID), nil
}

func (r *MemoryItemRepository) MaxPosition(ctx context.Context, queueID domain.QueueID) (int, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	highest, found := 0, false
	for _, item := range r.items {
		if item.QueueID != queueID {
			continue
		}
		if !found || item.Position > highest {
			highest, found = item.Position, true
		}
	}
	return highest, found, nil
}

func (r *MemoryItemRepository) Head(ctx context.Context, queueID domain.QueueID) (*domain.QueueItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var head *domain.QueueItem
	for _, item := range r.items {
		if item.QueueID != queueID {
			continue
		}
		item := item
		if head == nil || domain.Before(&item, head) {
			head = &item
		}
	}
	if head == nil {
		return nil, domain.ErrItemNotFound
	}
	return head, nil
}

func (r *MemoryItemRepository) sortedLocked(queueID domain.QueueID) []*domain.QueueItem {
	items := make([]*domain.QueueItem, 0)
	for _, item := range r.items {
		if item.QueueID == queueID {
			item := item
			items = append(items, &item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return domain.Before(items[i], items[j]) })
	return items
}
