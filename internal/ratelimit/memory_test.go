package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBlocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(5, 5*time.Minute)
	key := Key("10.0.0.1", "alice")

	for i := 0; i < 4; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, key))
		blocked, err := limiter.IsBlocked(ctx, key)
		require.NoError(t, err)
		require.False(t, blocked, "attempt %d should not block", i+1)
	}

	require.NoError(t, limiter.RecordFailure(ctx, key))
	blocked, err := limiter.IsBlocked(ctx, key)
	require.NoError(t, err)
	require.True(t, blocked)

	// A sixth failure keeps the key blocked.
	require.NoError(t, limiter.RecordFailure(ctx, key))
	blocked, err = limiter.IsBlocked(ctx, key)
	require.NoError(t, err)
	require.True(t, blocked)
}

func TestMemoryLimiterSuccessResetsCounter(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(5, 5*time.Minute)
	key := Key("10.0.0.1", "alice")

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, key))
	}
	blocked, err := limiter.IsBlocked(ctx, key)
	require.NoError(t, err)
	require.True(t, blocked)

	require.NoError(t, limiter.RecordSuccess(ctx, key))
	blocked, err = limiter.IsBlocked(ctx, key)
	require.NoError(t, err)
	require.False(t, blocked)
}

func TestMemoryLimiterWindowExpiry(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(5, 5*time.Minute)
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }
	key := Key("10.0.0.1", "alice")

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, key))
	}
	blocked, err := limiter.IsBlocked(ctx, key)
	require.NoError(t, err)
	require.True(t, blocked)

	// Still inside the window.
	current = current.Add(5 * time.Minute)
	blocked, err = limiter.IsBlocked(ctx, key)
	require.NoError(t, err)
	require.True(t, blocked)

	// Past the window the entry is treated as absent and a new failure
	// starts a fresh count of one.
	current = current.Add(time.Second)
	blocked, err = limiter.IsBlocked(ctx, key)
	require.NoError(t, err)
	require.False(t, blocked)

	require.NoError(t, limiter.RecordFailure(ctx, key))
	limiter.mu.Lock()
	entry := limiter.entries[key]
	limiter.mu.Unlock()
	require.Equal(t, 1, entry.count)
	require.Equal(t, current, entry.windowStart)
}

func TestMemoryLimiterConcurrentFailures(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(5, 5*time.Minute)
	key := Key("10.0.0.1", "alice")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = limiter.RecordFailure(ctx, key)
		}()
	}
	wg.Wait()

	limiter.mu.Lock()
	count := limiter.entries[key].count
	limiter.mu.Unlock()
	require.Equal(t, workers, count)
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(5, 5*time.Minute)

	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.RecordFailure(ctx, Key("10.0.0.1", "alice")))
	}

	blocked, err := limiter.IsBlocked(ctx, Key("10.0.0.2", "alice"))
	require.NoError(t, err)
	require.False(t, blocked)

	blocked, err = limiter.IsBlocked(ctx, Key("10.0.0.1", "bob"))
	require.NoError(t, err)
	require.False(t, blocked)
}
