package ports

import (
	"context"
	"time"
)

// KeyValueStore is the shared cache every service instance talks to.
// Implementations must be safe for concurrent use. A ttl of 0 means no expiry.
type KeyValueStore interface {
	// Get returns the raw bytes for key. ok=false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key with TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
	// Incr atomically increments the integer at key, creating it at 0 first.
	Incr(ctx context.Context, key string) (int64, error)
	// Expire sets a TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// CompareAndDelete removes key only while it still holds expected.
	CompareAndDelete(ctx context.Context, key string, expected []byte) (bool, error)
}
