package signal

import (
	"context"
	"sync"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
	"queuecast/internal/infrastructure/monitoring"
	"queuecast/pkg/tracing"

	"go.uber.org/zap"
)

// Hub tracks which sessions watch which queue and fans queue state out to
// them. It is process-local.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[domain.QueueID]map[*Session]struct{}
	memberships map[*Session]map[domain.QueueID]struct{}

	metrics *monitoring.PrometheusCollector
	logger  *zap.SugaredLogger
}

var _ ports.Broadcaster = (*Hub)(nil)

func NewHub(metrics *monitoring.PrometheusCollector, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		rooms:       make(map[domain.QueueID]map[*Session]struct{}),
		memberships: make(map[*Session]map[domain.QueueID]struct{}),
		metrics:     metrics,
		logger:      logger,
	}
}

// Register makes the session known to the hub before it joins any room.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.memberships[s]; !ok {
		h.memberships[s] = make(map[domain.QueueID]struct{})
		h.metrics.RecordSessionOpened()
	}
}

// Join is idempotent.
func (h *Hub) Join(s *Session, queueID domain.QueueID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[queueID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[queueID] = room
	}
	room[s] = struct{}{}

	joined, ok := h.memberships[s]
	if !ok {
		joined = make(map[domain.QueueID]struct{})
		h.memberships[s] = joined
		h.metrics.RecordSessionOpened()
	}
	joined[queueID] = struct{}{}
	h.metrics.SetRooms(len(h.rooms))
}

func (h *Hub) Leave(s *Session, queueID domain.QueueID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(s, queueID)
	if joined, ok := h.memberships[s]; ok {
		delete(joined, queueID)
	}
	h.metrics.SetRooms(len(h.rooms))
}

// Unregister removes the session from every room it joined.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	joined, ok := h.memberships[s]
	if !ok {
		return
	}
	for queueID := range joined {
		h.leaveLocked(s, queueID)
	}
	delete(h.memberships, s)
	h.metrics.RecordSessionClosed()
	h.metrics.SetRooms(len(h.rooms))
}

func (h *Hub) leaveLocked(s *Session, queueID domain.QueueID) {
	room, ok := h.rooms[queueID]
	if !ok {
		return
	}
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, queueID)
	}
}

// Broadcast sends the full item list to every session in the queue's room.
// Sessions whose buffers are full miss this frame.
func (h *Hub) Broadcast(ctx context.Context, queueID domain.QueueID, items []*domain.QueueItem) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[queueID]))
	for s := range h.rooms[queueID] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	if len(members) == 0 {
		h.metrics.RecordBroadcast(0, 0)
		return
	}

	frame, err := EncodeEvent(NewQueueItemsEvent(queueID, items))
	if err != nil {
		h.logger.Errorw("failed to encode queue items", "queue_id", queueID, "error", err)
		return
	}

	delivered, dropped := 0, 0
	for _, s := range members {
		if s.offer(frame) {
			delivered++
			continue
		}
		dropped++
		h.logger.Warnw("dropped broadcast frame for slow viewer", "queue_id", queueID, "session_id", s.id)
	}

	h.metrics.RecordBroadcast(delivered, dropped)
	tracing.AddSpanAttributes(ctx, tracing.ViewersKey.Int(delivered))
}

// Members returns the number of sessions watching the queue.
func (h *Hub) Members(queueID domain.QueueID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[queueID])
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.memberships)
}

// CloseAll closes every registered session; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.memberships))
	for s := range h.memberships {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.close()
	}
}
