package orcid

import "context"

// Locker provides mutual exclusion per key across processes. fn runs while
// the lock is held; the lock is released however fn returns, panics included.
// Acquisition blocks up to an implementation-defined bound, then fails with
// ErrLockTimeout.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func LockKey(orcid string) string {
	return "lock:orcid:" + orcid
}
