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

const queueSeqKey = keyPrefix + "queue:seq"

// RedisQueueRepository stores each queue as a JSON string and indexes it in
// a per-owner sorted set scored by id.
type RedisQueueRepository struct {
	client *redis.Client
}

func NewRedisQueueRepository(client *redis.Client) ports.QueueRepository {
	return &RedisQueueRepository{client: client}
}

func queueKey(id domain.QueueID) string {
	return keyPrefix + "queue:" + strconv.FormatInt(int64(id), 10)
}

func ownerQueuesKey(userID domain.UserID) string {
	return keyPrefix + "user:" + strconv.FormatInt(int64(userID), 10) + ":queues"
}

func (r *RedisQueueRepository) Create(ctx context.Context, queue *domain.Queue) error {
	id, err := r.client.Incr(ctx, queueSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate queue id: %w", err)
	}
	queue.ID = domain.QueueID(id)
	if queue.CreatedAt.IsZero() {
		queue.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(queue)
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, queueKey(queue.ID), data, 0)
		pipe.ZAdd(ctx, ownerQueuesKey(queue.UserID), redis.Z{Score: float64(queue.ID), Member: strconv.FormatInt(id, 10)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store queue in Redis: %w", err)
	}
	return nil
}

func (r *RedisQueueRepository) GetByID(ctx context.Context, id domain.QueueID) (*domain.Queue, error) {
	data, err := r.client.Get(ctx, queueKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrQueueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get queue from Redis: %w", err)
	}

	var queue domain.Queue
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("failed to unmarshal queue: %w", err)
	}
	return &queue, nil
}

func (r *RedisQueueRepository) ListByOwner(ctx context.Context, userID domain.UserID) ([]*domain.Queue, error) {
	ids, err := r.client.ZRange(ctx, ownerQueuesKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.Queue{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + "queue:" + id
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load queues: %w", err)
	}

	queues := make([]*domain.Queue, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var queue domain.Queue
		if err := json.Unmarshal([]byte(s), &queue); err != nil {
			return nil, fmt.Errorf("failed to unmarshal queue: %w", err)
		}
		queues = append(queues, &queue)
	}
	return queues, nil
}

func (r *RedisQueueRepository) Delete(ctx context.Context, id domain.QueueID) error {
	queue, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, queueKey(id))
		pipe.ZRem(ctx, ownerQueuesKey(queue.UserID), strconv.FormatInt(int64(id), 10))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete queue from Redis: %w", err)
	}
	return nil
}
