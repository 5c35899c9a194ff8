package ratelimit

import "context"

// LoginLimiter tracks failed login attempts per key and blocks a key once
// it accumulates too many failures inside the block window. The window
// starts at the first failure and resets entirely on success or expiry; it
// does not decay per attempt.
type LoginLimiter interface {
	// IsBlocked reports whether the key has reached the attempt budget
	// within a live window.
	IsBlocked(ctx context.Context, key string) (bool, error)
	// RecordFailure creates a fresh window for the key or increments the
	// count of an existing live one.
	RecordFailure(ctx context.Context, key string) error
	// RecordSuccess discards any tracking state for the key.
	RecordSuccess(ctx context.Context, key string) error
}

// Key builds the composite brute-force tracking key from the client
// address and the attempted username.
func Key(clientIP, username string) string {
	return clientIP + ":" + username
}
