package locks

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"gorm.io/gorm"
	orciddomain "inspire-orcid/internal/domain/orcid"
	"inspire-orcid/internal/repository/postgres/pgerrors"
	"inspire-orcid/pkg/logger"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultPollInterval = 100 * time.Millisecond
)

// AdvisoryLocker implements orcid.Locker with Postgres session advisory
// locks, so every process sharing the database sees the same lock. The lock
// is taken and released on one pinned connection.
type AdvisoryLocker struct {
	db           *gorm.DB
	timeout      time.Duration
	pollInterval time.Duration
	log          logger.Logger
}

func NewAdvisoryLocker(db *gorm.DB, timeout, pollInterval time.Duration, log logger.Logger) *AdvisoryLocker {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	return &AdvisoryLocker{db: db, timeout: timeout, pollInterval: pollInterval, log: log}
}

func (l *AdvisoryLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return l.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if err := l.acquire(ctx, conn, key); err != nil {
			return err
		}
		defer l.release(conn, key)

		return fn(ctx)
	})
}

func (l *AdvisoryLocker) acquire(ctx context.Context, conn *gorm.DB, key string) error {
	startedAt := time.Now()
	deadline := startedAt.Add(l.timeout)

	for {
		var acquired bool
		err := conn.WithContext(ctx).Raw("SELECT pg_try_advisory_lock(hashtextextended(?, 0))", key).Row().Scan(&acquired)
		if err != nil {
			if pgerrors.IsQueryCanceled(err) || ctx.Err() != nil {
				return fmt.Errorf("acquire lock %s: %w", key, context.Cause(ctx))
			}
			return fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if acquired {
			l.log.Debug("lock: acquired", "key", key, "wait_ms", time.Since(startedAt).Milliseconds())
			return nil
		}

		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w: %s after %s", orciddomain.ErrLockTimeout, key, l.timeout)
		}

		timer := time.NewTimer(l.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("acquire lock %s: %w", key, context.Cause(ctx))
		case <-timer.C:
		}
	}
}

// release runs with a fresh context: a cancelled push must still unlock.
func (l *AdvisoryLocker) release(conn *gorm.DB, key string) {
	var released bool
	err := conn.WithContext(context.Background()).Raw("SELECT pg_advisory_unlock(hashtextextended(?, 0))", key).Row().Scan(&released)
	if err != nil {
		l.log.InternalError("lock: release failed, discarding connection", err, "key", key)
		discardConn(conn)
		return
	}
	if !released {
		l.log.Critical("lock: release of a lock not held", "key", key)
	}
}

// discardConn closes the pinned connection instead of returning it to the
// pool; closing the session frees any advisory lock it still holds.
func discardConn(conn *gorm.DB) {
	if c, ok := conn.Statement.ConnPool.(*sql.Conn); ok {
		_ = c.Raw(func(interface{}) error {
			return driver.ErrBadConn
		})
	}
}
