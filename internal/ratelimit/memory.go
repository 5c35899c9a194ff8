package ratelimit

import (
	"context"
	"sync"
	"time"
)

var _ LoginLimiter = (*MemoryLimiter)(nil)

// MemoryLimiter keeps attempt counters in a process-local map. All updates
// to a key happen under the mutex, so concurrent failures never lose an
// increment and a concurrent success leaves the entry fully absent.
type MemoryLimiter struct {
	maxAttempts int
	window      time.Duration

	mu      sync.Mutex
	entries map[string]*attemptEntry
	now     func() time.Time
}

type attemptEntry struct {
	count       int
	windowStart time.Time
}

// NewMemoryLimiter creates an in-process login limiter.
func NewMemoryLimiter(maxAttempts int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		entries:     make(map[string]*attemptEntry),
		now:         time.Now,
	}
}

func (m *MemoryLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if m.expired(entry) {
		delete(m.entries, key)
		return false, nil
	}
	return entry.count >= m.maxAttempts, nil
}

func (m *MemoryLimiter) RecordFailure(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || m.expired(entry) {
		m.entries[key] = &attemptEntry{count: 1, windowStart: m.now()}
		return nil
	}
	entry.count++
	return nil
}

func (m *MemoryLimiter) RecordSuccess(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryLimiter) expired(entry *attemptEntry) bool {
	return m.now().After(entry.windowStart.Add(m.window))
}
