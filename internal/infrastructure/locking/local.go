package locking

import (
	"context"
	"errors"
	"sync"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/internal/core/ports"
)

type localEntry struct {
	slot chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex. Entries are reference counted
// and dropped once nobody holds or waits for them.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[domain.QueueID]*localEntry
	timeout time.Duration
}

var _ ports.QueueLocker = (*LocalLocker)(nil)

// NewLocalLocker returns a locker whose Lock gives up after timeout
// (zero means wait for ctx only).
func NewLocalLocker(timeout time.Duration) *LocalLocker {
	return &LocalLocker{
		entries: make(map[domain.QueueID]*localEntry),
		timeout: timeout,
	}
}

func (l *LocalLocker) Lock(ctx context.Context, queueID domain.QueueID) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[queueID]
	if !ok {
		e = &localEntry{slot: make(chan struct{}, 1)}
		l.entries[queueID] = e
	}
	e.refs++
	l.mu.Unlock()

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case e.slot <- struct{}{}:
	case <-ctx.Done():
		l.unref(queueID, e)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.ErrLockTimeout
		}
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.slot
			l.unref(queueID, e)
		})
	}, nil
}

func (l *LocalLocker) unref(queueID domain.QueueID, e *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, queueID)
	}
}

// held reports the number of live entries; used by tests.
func (l *LocalLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
