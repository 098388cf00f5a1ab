package orderlock

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Locker serializes every state-mutating path for a single order: the
// checkout callback, the timeout worker and the notification handler all
// take the order's lock before touching it. Gateway calls run while the
// lock is held; per-order contention is rare enough that this is fine.
type Locker interface {
	// Acquire blocks until the order's lock is held or ctx is done. The
	// returned func releases the lock.
	Acquire(ctx context.Context, orderID snowflake.ID) (func(), error)
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

// localLocker is the single-instance default: a keyed mutex held in
// process memory.
type localLocker struct {
	mu    sync.Mutex
	locks map[snowflake.ID]*localEntry
}

func NewLocalLocker() Locker {
	return &localLocker{locks: map[snowflake.ID]*localEntry{}}
}

func (l *localLocker) Acquire(ctx context.Context, orderID snowflake.ID) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[orderID]
	if !ok {
		e = &localEntry{ch: make(chan struct{}, 1)}
		l.locks[orderID] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			l.drop(orderID, e)
		}, nil
	case <-ctx.Done():
		l.drop(orderID, e)
		return nil, ctx.Err()
	}
}

func (l *localLocker) drop(orderID snowflake.ID, e *localEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, orderID)
	}
	l.mu.Unlock()
}
