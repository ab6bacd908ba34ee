package memory

import (
	"context"
	"sync"
	"time"

	"ontology-backend/application/ports"
	pkgerrors "ontology-backend/pkg/errors"
)

// Locker is a process-local lock table with expiring holders.
type Locker struct {
	mu    sync.Mutex
	held  map[string]lockEntry
	seq   int64
	retry time.Duration
}

type lockEntry struct {
	owner     string
	token     int64
	expiresAt time.Time
}

// NewLocker creates an empty lock table.
func NewLocker() *Locker {
	return &Locker{held: map[string]lockEntry{}, retry: 10 * time.Millisecond}
}

// Acquire takes resource for owner, waiting up to timeout for the current
// holder to release it or expire.
func (l *Locker) Acquire(ctx context.Context, resource, owner string, ttl, timeout time.Duration) (ports.Lock, error) {
	deadline := time.Now().Add(timeout)
	for {
		if lock, ok := l.tryAcquire(resource, owner, ttl); ok {
			return lock, nil
		}
		if time.Now().After(deadline) {
			return nil, pkgerrors.LockTimeout(resource)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}

func (l *Locker) tryAcquire(resource, owner string, ttl time.Duration) (*memoryLock, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if cur, ok := l.held[resource]; ok && now.Before(cur.expiresAt) {
		return nil, false
	}
	l.seq++
	l.held[resource] = lockEntry{owner: owner, token: l.seq, expiresAt: now.Add(ttl)}
	return &memoryLock{locker: l, resource: resource, token: l.seq}, true
}

type memoryLock struct {
	locker   *Locker
	resource string
	token    int64
}

// Release frees the lock if it is still held by this holder.
func (m *memoryLock) Release(ctx context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()

	if cur, ok := m.locker.held[m.resource]; ok && cur.token == m.token {
		delete(m.locker.held, m.resource)
	}
	return nil
}
