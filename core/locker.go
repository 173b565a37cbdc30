package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultRefreshLockTTL = 30 * time.Second

// MemoryAccountLocker serializes refresh attempts per account inside a single
// process. Acquire blocks until the current holder releases, the ttl elapses,
// or ctx is cancelled.
type MemoryAccountLocker struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	slot chan struct{}
	refs int
}

func NewMemoryAccountLocker() *MemoryAccountLocker {
	return &MemoryAccountLocker{
		locks: make(map[string]*accountLock),
	}
}

func (l *MemoryAccountLocker) Acquire(ctx context.Context, account string, ttl time.Duration) (LockHandle, error) {
	if l == nil {
		return nil, fmt.Errorf("core: account locker is not configured")
	}
	account = strings.TrimSpace(account)
	if account == "" {
		return nil, fmt.Errorf("core: account is required for lock acquisition")
	}
	if ttl <= 0 {
		ttl = defaultRefreshLockTTL
	}

	l.mu.Lock()
	lock, ok := l.locks[account]
	if !ok {
		lock = &accountLock{slot: make(chan struct{}, 1)}
		l.locks[account] = lock
	}
	lock.refs++
	l.mu.Unlock()

	timer := time.NewTimer(ttl)
	defer timer.Stop()

	select {
	case lock.slot <- struct{}{}:
		return &memoryLockHandle{locker: l, account: account, lock: lock}, nil
	case <-timer.C:
		l.release(account, lock, false)
		return nil, fmt.Errorf("core: refresh lock wait timed out for account %q", account)
	case <-ctx.Done():
		l.release(account, lock, false)
		return nil, ctx.Err()
	}
}

func (l *MemoryAccountLocker) release(account string, lock *accountLock, held bool) {
	if held {
		<-lock.slot
	}
	l.mu.Lock()
	lock.refs--
	if lock.refs <= 0 {
		delete(l.locks, account)
	}
	l.mu.Unlock()
}

type memoryLockHandle struct {
	locker  *MemoryAccountLocker
	account string
	lock    *accountLock
	once    sync.Once
}

func (h *memoryLockHandle) Unlock(context.Context) error {
	if h == nil || h.locker == nil {
		return nil
	}
	h.once.Do(func() {
		h.locker.release(h.account, h.lock, true)
	})
	return nil
}
