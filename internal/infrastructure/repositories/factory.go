package repositories

import (
	"context"
	"errors"
	"fmt"

	"queuecast/internal/core/ports"
	"queuecast/internal/infrastructure/locking"
	"queuecast/internal/infrastructure/repositories/memory"
	"queuecast/internal/infrastructure/repositories/postgres"
	redisrepo "queuecast/internal/infrastructure/repositories/redis"
	"queuecast/pkg/config"
	"queuecast/pkg/retry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory builds the stores and the queue locker for the
// configured driver, falling back to memory when allowed.
type RepositoryFactory struct {
	driver      string
	redisClient *redis.Client
	pgPool      *pgxpool.Pool

	queues ports.QueueRepository
	items  ports.ItemRepository
	users  ports.UserRepository
	locker ports.QueueLocker

	logger *zap.SugaredLogger
}

// NewRepositoryFactory connects to the configured store, retrying with
// backoff. When the store stays unreachable and store.fallback is set the
// factory uses memory stores instead of failing.
func NewRepositoryFactory(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	return newRepositoryFactory(ctx, cfg, retry.DefaultConfig(), logger)
}

func newRepositoryFactory(ctx context.Context, cfg *config.Config, backoff retry.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	f := &RepositoryFactory{logger: logger}

	var err error
	switch cfg.Store.Driver {
	case config.StoreRedis:
		err = f.useRedis(ctx, cfg, backoff)
	case config.StorePostgres:
		err = f.usePostgres(ctx, cfg, backoff)
	case config.StoreMemory:
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err != nil {
		if !cfg.Store.Fallback {
			return nil, err
		}
		logger.Warnw("store unavailable, falling back to memory repositories",
			"driver", cfg.Store.Driver,
			"error", err,
		)
	}
	if f.driver == "" {
		f.useMemory(cfg)
	}

	logger.Infow("repositories ready", "driver", f.driver)
	return f, nil
}

func (f *RepositoryFactory) useMemory(cfg *config.Config) {
	f.driver = config.StoreMemory
	f.queues = memory.NewMemoryQueueRepository()
	f.items = memory.NewMemoryItemRepository()
	f.users = memory.NewMemoryUserRepository()
	f.locker = locking.NewLocalLocker(cfg.Locking.Timeout)
}

func (f *RepositoryFactory) useRedis(ctx context.Context, cfg *config.Config, backoff retry.Config) error {
	client, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*redis.Client, error) {
		return redisrepo.NewRedisClient(ctx,
			cfg.Redis.Address,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.PoolSize,
			f.logger,
		)
	})
	if err != nil {
		return err
	}

	f.driver = config.StoreRedis
	f.redisClient = client
	f.queues = redisrepo.NewRedisQueueRepository(client)
	f.items = redisrepo.NewRedisItemRepository(client)
	f.users = redisrepo.NewRedisUserRepository(client)
	f.locker = locking.NewRedisLocker(client, cfg.Locking.TTL, cfg.Locking.Timeout, f.logger)
	return nil
}

func (f *RepositoryFactory) usePostgres(ctx context.Context, cfg *config.Config, backoff retry.Config) error {
	pool, err := retry.DoValue(ctx, backoff, func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
		if errors.Is(err, postgres.ErrInvalidDSN) {
			return nil, retry.Permanent(err)
		}
		return pool, err
	})
	if err != nil {
		return err
	}
	// another replica may hold the migration lock while it migrates
	err = retry.Do(ctx, backoff, func(context.Context) error {
		return postgres.Migrate(cfg.Postgres.DSN)
	})
	if err != nil {
		pool.Close()
		return err
	}

	f.driver = config.StorePostgres
	f.pgPool = pool
	f.queues = postgres.NewPgQueueRepository(pool)
	f.items = postgres.NewPgItemRepository(pool)
	f.users = postgres.NewPgUserRepository(pool)
	f.locker = locking.NewPostgresLocker(pool, cfg.Locking.Timeout, f.logger)
	f.logger.Infow("connected to Postgres", "max_conns", cfg.Postgres.MaxConns)
	return nil
}

// Driver reports the store actually in use.
func (f *RepositoryFactory) Driver() string { return f.driver }

func (f *RepositoryFactory) QueueRepository() ports.QueueRepository { return f.queues }

func (f *RepositoryFactory) ItemRepository() ports.ItemRepository { return f.items }

func (f *RepositoryFactory) UserRepository() ports.UserRepository { return f.users }

// Locker serializes mutations per queue. Redis and Postgres lockers
// coordinate across processes; the memory locker only within one.
func (f *RepositoryFactory) Locker() ports.QueueLocker { return f.locker }

// HealthCheck pings the backing store.
func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	switch {
	case f.redisClient != nil:
		return f.redisClient.Ping(ctx).Err()
	case f.pgPool != nil:
		return f.pgPool.Ping(ctx)
	}
	return nil
}

func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return f.redisClient.Close()
	}
	if f.pgPool != nil {
		f.pgPool.Close()
	}
	return nil
}
