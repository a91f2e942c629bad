package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const itemSeqKey = keyPrefix + "item:seq"

// RedisItemRepository keeps items as JSON strings plus one sorted set per
// queue. The set is scored by position; members are zero-padded ids so that
// Redis' lexicographic tie-break on equal scores matches id order.
type RedisItemRepository struct {
	client *redis.Client
}

func NewRedisItemRepository(client *redis.Client) ports.ItemRepository {
	return &RedisItemRepository{client: client}
}

func itemKey(id domain.ItemID) string {
	return keyPrefix + "item:" + strconv.FormatInt(int64(id), 10)
}

func queueItemsKey(queueID domain.QueueID) string {
	return keyPrefix + "queue:" + strconv.FormatInt(int64(queueID), 10) + ":items"
}

func itemMember(id domain.ItemID) string {
	return fmt.Sprintf("%019d", int64(id))
}

func memberItemKey(member string) (string, error) {
	id, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return "", fmt.Errorf("corrupt item member %q: %w", member, err)
	}
	return itemKey(domain.ItemID(id)), nil
}

func (r *RedisItemRepository) Create(ctx context.Context, item *domain.QueueItem) error {
	id, err := r.client.Incr(ctx, itemSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate item id: %w", err)
	}
	item.ID = domain.ItemID(id)
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	return r.write(ctx, item)
}

func (r *RedisItemRepository) write(ctx context.Context, item *domain.QueueItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, itemKey(item.ID), data, 0)
		pipe.ZAdd(ctx, queueItemsKey(item.QueueID), redis.Z{Score: float64(item.Position), Member: itemMember(item.ID)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store item in Redis: %w", err)
	}
	return nil
}

func (r *RedisItemRepository) GetByID(ctx context.Context, id domain.ItemID) (*domain.QueueItem, error) {
	data, err := r.client.Get(ctx, itemKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item from Redis: %w", err)
	}

	var item domain.QueueItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &item, nil
}

func (r *RedisItemRepository) Update(ctx context.Context, item *domain.QueueItem) error {
	stored, err := r.GetByID(ctx, item.ID)
	if err != nil {
		return err
	}
	stored.Text = item.Text
	stored.Position = item.Position
	if err := r.write(ctx, stored); err != nil {
		return err
	}
	*item = *stored
	return nil
}

func (r *RedisItemRepository) Delete(ctx context.Context, id domain.ItemID) error {
	item, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, itemKey(id))
		pipe.ZRem(ctx, queueItemsKey(item.QueueID), itemMember(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete item from Redis: %w", err)
	}
	return nil
}

func (r *RedisItemRepository) DeleteByQueue(ctx context.Context, queueID domain.QueueID) error {
	members, err := r.client.ZRange(ctx, queueItemsKey(queueID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		key, err := memberItemKey(m)
		if err != nil {
			return err
		}
		keys = append(keys, key)
	}
	keys = append(keys, queueItemsKey(queueID))

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete queue items: %w", err)
	}
	return nil
}

func (r *RedisItemRepository) ListByQueue(ctx context.Context, queueID domain.QueueID) ([]*domain.QueueItem, error) {
	members, err := r.client.ZRange(ctx, queueItemsKey(queueID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return r.load(ctx, members)
}

func (r *RedisItemRepository) MaxPosition(ctx context.Context, queueID domain.QueueID) (int, bool, error) {
	top, err := r.client.ZRevRangeWithScores(ctx, queueItemsKey(queueID), 0, 0).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read max position: %w", err)
	}
	if len(top) == 0 {
		return 0, false, nil
	}
	return int(top[0].Score), true, nil
}

func (r *RedisItemRepository) Head(ctx context.Context, queueID domain.QueueID) (*domain.QueueItem, error) {
	members, err := r.client.ZRange(ctx, queueItemsKey(queueID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue head: %w", err)
	}
	if len(members) == 0 {
		return nil, domain.ErrItemNotFound
	}
	items, err := r.load(ctx, members)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrItemNotFound
	}
	return items[0], nil
}

// load fetches items for sorted-set members, preserving member order and
// skipping members whose item key has vanished.
func (r *RedisItemRepository) load(ctx context.Context, members []string) ([]*domain.QueueItem, error) {
	if len(members) == 0 {
		return []*domain.QueueItem{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		key, err := memberItemKey(m)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}

	items := make([]*domain.QueueItem, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var item domain.QueueItem
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		items = append(items, &item)
	}
	return items, nil
}
