package services

import (
	"context"
	"errors"
	"strings"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
	apperrors "queuecast/pkg/errors"
	"queuecast/pkg/tracing"
	"queuecast/pkg/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	msgDeleteForbidden = "You are not allowed to delete this queue"
	msgAddForbidden    = "You are not allowed to add item to this queue"
	msgRemoveForbidden = "You are not allowed to remove item from this queue"
	msgUpdateForbidden = "You are not allowed to update item from this queue"
	msgPopForbidden    = "You are not allowed to process this queue"

	msgNoPositionLeft = "No position left after the last item"
)

type queueService struct {
	queues      ports.QueueRepository
	items       ports.ItemRepository
	locker      ports.QueueLocker
	broadcaster ports.Broadcaster
}

// NewQueueService wires the ordered queue engine. Every mutation of a
// queue's items runs under locker and ends with a full-state broadcast.
func NewQueueService(
	queues ports.QueueRepository,
	items ports.ItemRepository,
	locker ports.QueueLocker,
	broadcaster ports.Broadcaster,
) ports.QueueService {
	return &queueService{
		queues:      queues,
		items:       items,
		locker:      locker,
		broadcaster: broadcaster,
	}
}

func (s *queueService) CreateQueue(ctx context.Context, name string, caller domain.UserID) (*domain.Queue, error) {
	if err := validation.ValidateQueueName(name); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	queue := &domain.Queue{
		Name:   strings.TrimSpace(name),
		UserID: caller,
	}
	if err := s.queues.Create(ctx, queue); err != nil {
		return nil, storeError(err)
	}
	return queue, nil
}

func (s *queueService) ListQueues(ctx context.Context, caller domain.UserID) ([]*domain.Queue, error) {
	queues, err := s.queues.ListByOwner(ctx, caller)
	if err != nil {
		return nil, storeError(err)
	}
	return queues, nil
}

func (s *queueService) GetQueue(ctx context.Context, id domain.QueueID) (*domain.Queue, error) {
	queue, err := s.queues.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return queue, nil
}

func (s *queueService) ListItems(ctx context.Context, queueID domain.QueueID) ([]*domain.QueueItem, error) {
	items, err := s.items.ListByQueue(ctx, queueID)
	if err != nil {
		return nil, storeError(err)
	}
	return items, nil
}

func (s *queueService) DeleteQueue(ctx context.Context, id domain.QueueID, caller domain.UserID) (*domain.Queue, error) {
	ctx, span := tracing.TraceQueueOperation(ctx, "delete_queue", int64(id))
	defer span.End()

	var deleted *domain.Queue
	err := s.withOwnedQueue(ctx, id, caller, msgDeleteForbidden, func(queue *domain.Queue) error {
		if err := s.items.DeleteByQueue(ctx, id); err != nil {
			return storeError(err)
		}
		if err := s.queues.Delete(ctx, id); err != nil {
			return storeError(err)
		}
		deleted = queue
		s.broadcaster.Broadcast(ctx, id, []*domain.QueueItem{})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *queueService) AddItem(ctx context.Context, queueID domain.QueueID, caller domain.UserID, in domain.ItemInput) (*domain.QueueItem, error) {
	if err := validateItemInput(in); err != nil {
		return nil, err
	}

	ctx, span := tracing.TraceQueueOperation(ctx, "add_item", int64(queueID))
	defer span.End()

	item := &domain.QueueItem{
		QueueID:  queueID,
		Text:     strings.TrimSpace(in.Text),
		Position: *in.Position,
	}
	err := s.withOwnedQueue(ctx, queueID, caller, msgAddForbidden, func(*domain.Queue) error {
		if err := s.items.Create(ctx, item); err != nil {
			return storeError(err)
		}
		s.publish(ctx, queueID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *queueService) AddItemToEnd(ctx context.Context, queueID domain.QueueID, caller domain.UserID, text string) (*domain.QueueItem, error) {
	if err := validation.ValidateItemText(text); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	ctx, span := tracing.TraceQueueOperation(ctx, "add_item_to_end", int64(queueID))
	defer span.End()

	item := &domain.QueueItem{
		QueueID: queueID,
		Text:    strings.TrimSpace(text),
	}
	err := s.withOwnedQueue(ctx, queueID, caller, msgAddForbidden, func(*domain.Queue) error {
		last, found, err := s.items.MaxPosition(ctx, queueID)
		if err != nil {
			return storeError(err)
		}
		item.Position = 1
		if found {
			if last >= validation.MaxPosition {
				return apperrors.NewValidationError(msgNoPositionLeft)
			}
			item.Position = last + 1
		}
		if err := s.items.Create(ctx, item); err != nil {
			return storeError(err)
		}
		s.publish(ctx, queueID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *queueService) UpdateItem(ctx context.Context, itemID domain.ItemID, caller domain.UserID, in domain.ItemInput) (*domain.QueueItem, error) {
	if err := validateItemInput(in); err != nil {
		return nil, err
	}

	var updated *domain.QueueItem
	err := s.withOwnedItem(ctx, "update_item", itemID, caller, msgUpdateForbidden, func(item *domain.QueueItem) error {
		item.Text = strings.TrimSpace(in.Text)
		item.Position = *in.Position
		if err := s.items.Update(ctx, item); err != nil {
			return storeError(err)
		}
		updated = item
		s.publish(ctx, item.QueueID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *queueService) RemoveItem(ctx context.Context, itemID domain.ItemID, caller domain.UserID) error {
	return s.withOwnedItem(ctx, "remove_item", itemID, caller, msgRemoveForbidden, func(item *domain.QueueItem) error {
		if err := s.items.Delete(ctx, item.ID); err != nil {
			return storeError(err)
		}
		s.publish(ctx, item.QueueID)
		return nil
	})
}

func (s *queueService) PopHead(ctx context.Context, queueID domain.QueueID, caller domain.UserID) (*domain.QueueItem, error) {
	ctx, span := tracing.TraceQueueOperation(ctx, "pop_head", int64(queueID))
	defer span.End()

	var popped *domain.QueueItem
	err := s.withOwnedQueue(ctx, queueID, caller, msgPopForbidden, func(*domain.Queue) error {
		head, err := s.items.Head(ctx, queueID)
		if errors.Is(err, domain.ErrItemNotFound) {
			return nil
		}
		if err != nil {
			return storeError(err)
		}
		if err := s.items.Delete(ctx, head.ID); err != nil {
			return storeError(err)
		}
		popped = head
		s.publish(ctx, queueID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return popped, nil
}

// withOwnedQueue runs fn under the queue's lock once the queue is known to
// exist and belong to caller.
func (s *queueService) withOwnedQueue(ctx context.Context, queueID domain.QueueID, caller domain.UserID, forbidden string, fn func(*domain.Queue) error) error {
	tracing.AddSpanAttributes(ctx, tracing.UserIDKey.Int64(int64(caller)))

	release, err := s.locker.Lock(ctx, queueID)
	if err != nil {
		return storeError(err)
	}
	defer release()

	queue, err := s.queues.GetByID(ctx, queueID)
	if err != nil {
		return storeError(err)
	}
	if !queue.OwnedBy(caller) {
		return apperrors.NewForbiddenError(forbidden)
	}
	return fn(queue)
}

// withOwnedItem resolves the item's parent queue, then authorizes against
// it. The item is re-read under the lock since it may have moved on.
func (s *queueService) withOwnedItem(ctx context.Context, op string, itemID domain.ItemID, caller domain.UserID, forbidden string, fn func(*domain.QueueItem) error) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return storeError(err)
	}

	ctx, span := tracing.TraceQueueOperation(ctx, op, int64(item.QueueID))
	defer span.End()
	span.SetAttributes(tracing.ItemIDKey.Int64(int64(itemID)))

	return s.withOwnedQueue(ctx, item.QueueID, caller, forbidden, func(*domain.Queue) error {
		current, err := s.items.GetByID(ctx, itemID)
		if err != nil {
			return storeError(err)
		}
		if current.QueueID != item.QueueID {
			return apperrors.NewNotFoundError("Queue")
		}
		return fn(current)
	})
}

// publish re-reads the queue and hands the full list to the broadcaster.
// The mutation has already been committed, so a failed re-read only skips
// the push.
func (s *queueService) publish(ctx context.Context, queueID domain.QueueID) {
	items, err := s.items.ListByQueue(ctx, queueID)
	if err != nil {
		tracing.RecordError(ctx, err)
		return
	}
	tracing.AddSpanAttributes(ctx, attribute.Int("queue.length", len(items)))
	s.broadcaster.Broadcast(ctx, queueID, items)
}

func validateItemInput(in domain.ItemInput) error {
	if err := validation.ValidateItemText(in.Text); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	if err := validation.ValidatePosition(in.Position); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}

// storeError maps repository sentinels onto client-facing errors. A missing
// item surfaces as a missing queue since its parent cannot be resolved.
func storeError(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, domain.ErrQueueNotFound), errors.Is(err, domain.ErrItemNotFound):
		return apperrors.NewNotFoundError("Queue")
	default:
		return apperrors.NewInternalError(err)
	}
}
