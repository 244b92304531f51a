package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sibyl-protocol/sibyl/internal/domain"
)

// LockManager implements domain.LockManager with in-process keyed mutexes.
// It provides the per-market serialization guarantee for single-instance
// deployments; multi-replica deployments use the Redis lock manager instead.
// The ttl argument is ignored: an in-process lock dies with its holder.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*sync.Mutex)}
}

// Acquire blocks until the lock for key is available and returns an unlock
// function that is safe to call more than once.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lm.mu.Lock()
	l, ok := lm.locks[key]
	if !ok {
		l = &sync.Mutex{}
		lm.locks[key] = l
	}
	lm.mu.Unlock()

	l.Lock()

	released := false
	unlock := func() {
		if released {
			return
		}
		released = true
		l.Unlock()
	}
	return unlock, nil
}

// Compile-time interface check.
var _ domain.LockManager = (*LockManager)(nil)
