package postgres

import (
	"context"
	"database/sql"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/lacuna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock using PostgreSQL advisory locks.
//
// Advisory locks are session-scoped, so each held lock pins a dedicated
// connection checked out of the pool. Acquire and Release for the same name
// must run on that same session; issuing them through the pooled handle
// would let the unlock land on a different connection, leaving the lock
// bound to an idle pooled session until it recycles.
//
// IMPORTANT LIMITATIONS:
// - The TTL parameter is ignored (advisory locks don't expire automatically)
// - If the pinned connection is lost, the lock is automatically released
//
// For production multi-worker deployments, Redis locks are recommended.
// This is provided as a fallback when Redis is unavailable.
type AdvisoryLock struct {
	db *DB

	mu    sync.Mutex
	conns map[int64]*sql.Conn // lock ID -> pinned session holding it
}

// NewAdvisoryLock creates a new PostgreSQL advisory lock adapter.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{
		db:    db,
		conns: make(map[int64]*sql.Conn),
	}
}

// hashLockName converts a string lock name to a 64-bit integer for PostgreSQL advisory locks.
// Uses FNV-1a hash for consistent, well-distributed values.
func hashLockName(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("lacuna:lock:" + name))
	return int64(h.Sum64())
}

// Acquire attempts to acquire a named advisory lock on a dedicated
// connection. Uses pg_try_advisory_lock which returns immediately without
// blocking. On success the connection stays checked out until Release; on
// failure it goes straight back to the pool.
//
// Note: The TTL parameter is ignored - PostgreSQL advisory locks don't have TTL.
// The lock is held until explicitly released or the pinned connection closes.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	lockID := hashLockName(name)

	l.mu.Lock()
	_, alreadyHeld := l.conns[lockID]
	l.mu.Unlock()
	if alreadyHeld {
		// This instance already pins a session for the lock; a fresh
		// session's try-lock would report it as held elsewhere.
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.mu.Lock()
	l.conns[lockID] = conn
	l.mu.Unlock()
	return true, nil
}

// Release releases a named advisory lock on the session that acquired it
// and returns that connection to the pool.
// Safe to call even if the lock is not held (no-op, no error).
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	lockID := hashLockName(name)

	l.mu.Lock()
	conn, ok := l.conns[lockID]
	delete(l.conns, lockID)
	l.mu.Unlock()
	if !ok {
		return nil
	}

	var released bool
	err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", lockID).Scan(&released)
	// Closing the pinned connection releases the session's advisory locks
	// even if the unlock itself failed, so the lock can never outlive this
	// call bound to an idle pooled session.
	if closeErr := conn.Close(); err == nil {
		err = closeErr
	}
	return err
}

// Ping checks if the PostgreSQL backend is healthy.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
