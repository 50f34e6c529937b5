package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	orciddomain "inspire-orcid/internal/domain/orcid"
)

// Locker is a process-local orcid.Locker: one single-slot semaphore per key.
type Locker struct {
	timeout time.Duration

	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocker(timeout time.Duration) *Locker {
	return &Locker{
		timeout: timeout,
		slots:   make(map[string]chan struct{}),
	}
}

func (l *Locker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("acquire lock %s: %w", key, err)
	}
	slot := l.slot(key)

	var timeout <-chan time.Time
	if l.timeout > 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("acquire lock %s: %w", key, context.Cause(ctx))
	case <-timeout:
		return fmt.Errorf("%w: %s after %s", orciddomain.ErrLockTimeout, key, l.timeout)
	}
	defer func() { <-slot }()

	return fn(ctx)
}

func (l *Locker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	return slot
}
