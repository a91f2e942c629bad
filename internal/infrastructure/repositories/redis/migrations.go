package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	schemaVersionKey     = keyPrefix + "schema:version"
	currentSchemaVersion = 1
)

// Migration is one forward step of the key layout.
type Migration struct {
	Version int
	Up      func(ctx context.Context, client *redis.Client) error
}

// Migrate applies every migration newer than the stored schema version.
func Migrate(ctx context.Context, client *redis.Client, logger *zap.SugaredLogger) error {
	currentVersion, err := getSchemaVersion(ctx, client)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}
	if currentVersion >= currentSchemaVersion {
		logger.Debugw("redis schema is up to date", "version", currentVersion)
		return nil
	}

	for _, migration := range migrations() {
		if migration.Version <= currentVersion {
			continue
		}
		logger.Infow("running redis migration", "version", migration.Version)
		if err := migration.Up(ctx, client); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}
		if err := client.Set(ctx, schemaVersionKey, migration.Version, 0).Err(); err != nil {
			return fmt.Errorf("failed to update schema version: %w", err)
		}
	}
	return nil
}

func getSchemaVersion(ctx context.Context, client *redis.Client) (int, error) {
	val, err := client.Get(ctx, schemaVersionKey).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func migrations() []Migration {
	return []Migration{
		{
			// Id sequences start at zero so INCR hands out 1 first.
			Version: 1,
			Up: func(ctx context.Context, client *redis.Client) error {
				_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					for _, key := range []string{queueSeqKey, itemSeqKey, userSeqKey} {
						pipe.SetNX(ctx, key, 0, 0)
					}
					return nil
				})
				return err
			},
		},
	}
}
