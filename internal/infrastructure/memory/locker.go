package memory

import (
	"context"
	"sync"

	"github.com/explore-with-me/ewm-service/internal/domain/apperror"
)

type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*keyedEntry)}
}

// Lock blocks until key is free and returns its unlock func.
func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Locker implements event.Locker with one mutex per event id.
type Locker struct {
	store *Store
}

func NewLocker(store *Store) *Locker {
	return &Locker{store: store}
}

// WithEventLock runs fn while holding the event's mutex. Writes made through
// the repositories with fn's context are applied only when fn succeeds.
// Nested calls join the outer scope.
func (l *Locker) WithEventLock(ctx context.Context, eventID int64, fn func(ctx context.Context) error) error {
	if scopeFrom(ctx) != nil {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := l.store.locks.Lock(eventID)
	defer unlock()

	l.store.mu.RLock()
	_, ok := l.store.events[eventID]
	l.store.mu.RUnlock()
	if !ok {
		return apperror.NotFound("Event with id=%d was not found", eventID)
	}

	sc := newScope()
	if err := fn(withScope(ctx, sc)); err != nil {
		return err
	}
	return l.store.commit(sc)
}
