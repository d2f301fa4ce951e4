// Package lock serialises mutations of a single group across goroutines
// (LocalLocker) or across service instances (RedisLocker).
package lock

import (
	"context"
	"sync"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
)

type keyedSlot struct {
	ch   chan struct{}
	refs int
}

// LocalLocker is an in-process keyed mutex. Waiting honours context cancellation.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*keyedSlot
}

// NewLocalLocker creates an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*keyedSlot)}
}

var _ portsrepo.GroupLocker = (*LocalLocker)(nil)

// Lock blocks until the group's slot is free or ctx is done.
func (l *LocalLocker) Lock(ctx context.Context, groupID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[groupID]
	if !ok {
		slot = &keyedSlot{ch: make(chan struct{}, 1)}
		l.slots[groupID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(groupID, slot)
		return nil, apperrors.Wrap(apperrors.KindGroupBusy, "timed out waiting for group lock", ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.ch
			l.release(groupID, slot)
		})
	}, nil
}

func (l *LocalLocker) release(groupID string, slot *keyedSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, groupID)
	}
}
