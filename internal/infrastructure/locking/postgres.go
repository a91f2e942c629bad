package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
	"queuecast/pkg/circuitbreaker"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresLocker uses session-level advisory locks keyed by queue id. The
// pooled connection that took the lock is pinned until release.
type PostgresLocker struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

var _ ports.QueueLocker = (*PostgresLocker)(nil)

func NewPostgresLocker(pool *pgxpool.Pool, timeout time.Duration, logger *zap.SugaredLogger) *PostgresLocker {
	return &PostgresLocker{
		pool:    pool,
		timeout: timeout,
		breaker: newStoreBreaker("postgres", logger),
		logger:  logger,
	}
}

func (l *PostgresLocker) Lock(ctx context.Context, queueID domain.QueueID) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var conn *pgxpool.Conn
	err := l.breaker.Execute(func() error {
		c, err := l.pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire lock connection: %w", err)
		}
		if _, err := c.Exec(ctx, `SELECT pg_advisory_lock($1)`, int64(queueID)); err != nil {
			c.Release()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return domain.ErrLockTimeout
			}
			return fmt.Errorf("advisory lock: %w", err)
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, int64(queueID)); err != nil {
			if l.logger != nil {
				l.logger.Warnw("failed to release advisory lock", "queue_id", queueID, "error", err)
			}
			// a connection still holding the lock must not go back to the pool
			conn.Conn().Close(ctx)
		}
		conn.Release()
	}, nil
}
