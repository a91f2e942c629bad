package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const userSeqKey = keyPrefix + "user:seq"

type RedisUserRepository struct {
	client *redis.Client
}

func NewRedisUserRepository(client *redis.Client) ports.UserRepository {
	return &RedisUserRepository{client: client}
}

func userKey(id domain.UserID) string {
	return keyPrefix + "user:" + strconv.FormatInt(int64(id), 10)
}

func emailKey(email string) string {
	return keyPrefix + "user:email:" + strings.ToLower(email)
}

// userRecord persists the password hash, which domain.User hides from JSON.
type userRecord struct {
	ID           domain.UserID `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"passwordHash"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func (r *RedisUserRepository) Create(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(user.Email)

	id, err := r.client.Incr(ctx, userSeqKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate user id: %w", err)
	}

	// The email index doubles as the uniqueness guard.
	claimed, err := r.client.SetNX(ctx, emailKey(user.Email), id, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve email: %w", err)
	}
	if !claimed {
		return domain.ErrEmailTaken
	}

	user.ID = domain.UserID(id)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(userRecord{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := r.client.Set(ctx, userKey(user.ID), data, 0).Err(); err != nil {
		r.client.Del(ctx, emailKey(user.Email))
		return fmt.Errorf("failed to store user in Redis: %w", err)
	}
	return nil
}

func (r *RedisUserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	data, err := r.client.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Redis: %w", err)
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &domain.User{
		ID:           rec.ID,
		Name:         rec.Name,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

func (r *RedisUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	id, err := r.client.Get(ctx, emailKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve email: %w", err)
	}
	return r.GetByID(ctx, domain.UserID(id))
}
