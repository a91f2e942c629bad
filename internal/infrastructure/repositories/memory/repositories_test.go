package memory

import (
	"context"
	"testing"

	"queuecast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQueueRepository()

	q1 := &domain.Queue{Name: "Front Desk", UserID: 1}
	q2 := &domain.Queue{Name: "Pharmacy", UserID: 2}
	q3 := &domain.Queue{Name: "Lab", UserID: 1}
	for _, q := range []*domain.Queue{q1, q2, q3} {
		require.NoError(t, repo.Create(ctx, q))
	}
	assert.Equal(t, domain.QueueID(1), q1.ID)
	assert.Equal(t, domain.QueueID(3), q3.ID)
	assert.False(t, q1.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, q2.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pharmacy", got.Name)

	owned, err := repo.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, q1.ID, owned[0].ID)
	assert.Equal(t, q3.ID, owned[1].ID)

	none, err := repo.ListByOwner(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.Delete(ctx, q1.ID))
	_, err = repo.GetByID(ctx, q1.ID)
	assert.ErrorIs(t, err, domain.ErrQueueNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, q1.ID), domain.ErrQueueNotFound)
}

func TestMemoryQueueRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryQueueRepository()
	q := &domain.Queue{Name: "orig", UserID: 1}
	require.NoError(t, repo.Create(ctx, q))

	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", again.Name)
}

func TestMemoryItemRepository_OrderingAndHead(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryItemRepository()

	add := func(queueID domain.QueueID, text string, pos int) *domain.QueueItem {
		item := &domain.QueueItem{QueueID: queueID, Text: text, Position: pos}
		require.NoError(t, repo.Create(ctx, item))
		return item
	}
	add(1, "c", 5)
	b := add(1, "b", 2)
	add(1, "b-dup", 2)
	add(1, "a", -1)
	add(2, "other", 0)

	items, err := repo.ListByQueue(ctx, 1)
	require.NoError(t, err)
	texts := make([]string, 0, len(items))
	for _, it := range items {
		texts = append(texts, it.Text)
	}
	assert.Equal(t, []string{"a", "b", "b-dup", "c"}, texts)

	highest, ok, err := repo.MaxPosition(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, highest)

	_, ok, err = repo.MaxPosition(ctx, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	head, err := repo.Head(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", head.Text)

	_, err = repo.Head(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	b.Text, b.Position = "b-moved", 10
	require.NoError(t, repo.Update(ctx, b))
	highest, _, _ = repo.MaxPosition(ctx, 1)
	assert.Equal(t, 10, highest)

	require.NoError(t, repo.DeleteByQueue(ctx, 1))
	items, err = repo.ListByQueue(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, items)

	others, err := repo.ListByQueue(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, others, 1)
}

func TestMemoryItemRepository_MissingItem(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryItemRepository()

	_, err := repo.GetByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 42), domain.ErrItemNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &domain.QueueItem{ID: 42}), domain.ErrItemNotFound)
}

func TestMemoryUserRepository_EmailUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	u := &domain.User{Name: "Ada", Email: "Ada@Example.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "ada@example.com", u.Email)

	err := repo.Create(ctx, &domain.User{Name: "Other", Email: "ada@example.COM"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	got, err := repo.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByID(ctx, 99)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
