package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
	"queuecast/pkg/circuitbreaker"
	"queuecast/pkg/distributed"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLocker serializes queue mutations across processes sharing a Redis.
type RedisLocker struct {
	manager *distributed.LockManager
	ttl     time.Duration
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

var _ ports.QueueLocker = (*RedisLocker)(nil)

func NewRedisLocker(client *redis.Client, ttl, timeout time.Duration, logger *zap.SugaredLogger) *RedisLocker {
	return &RedisLocker{
		manager: distributed.NewLockManager(client, "queuecast:lock:"),
		ttl:     ttl,
		timeout: timeout,
		breaker: newStoreBreaker("redis", logger),
		logger:  logger,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, queueID domain.QueueID) (func(), error) {
	lock := l.manager.AcquireLock(fmt.Sprintf("queue:%d", queueID), l.ttl)
	err := l.breaker.Execute(func() error {
		if err := lock.LockWithTimeout(ctx, l.timeout); err != nil {
			if errors.Is(err, distributed.ErrLockTimeout) {
				return domain.ErrLockTimeout
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}

	return func() {
		// the request context may already be gone
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := lock.Unlock(ctx); err != nil && l.logger != nil {
			l.logger.Warnw("failed to release queue lock", "queue_id", queueID, "error", err)
		}
	}, nil
}
