// Package lock provides the short lived per-project lock that keeps a
// project to one outstanding edit at a time.
package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Release gives a lock back. It is safe to call more than once and never
// frees a lock that has since expired and been taken by someone else.
type Release func()

type Locker interface {
	// TryLock takes key for ttl without waiting. ok is false when another
	// holder has it.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release Release, ok bool, err error)
}

// EditKey is the lock key guarding edit submission on a project.
func EditKey(projectID uuid.UUID) string {
	return "edit:" + projectID.String()
}

type memoryEntry struct {
	token   string
	expires time.Time
}

// MemoryLocker is a process local Locker for single instance deployments.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryEntry
	clock func() time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]memoryEntry),
		clock: time.Now,
	}
}

func (m *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Release, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if entry, ok := m.held[key]; ok && now.Before(entry.expires) {
		return nil, false, nil
	}

	token := uuid.NewString()
	m.held[key] = memoryEntry{token: token, expires: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if entry, ok := m.held[key]; ok && entry.token == token {
				delete(m.held, key)
			}
		})
	}, true, nil
}
