package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers idempotency keys of work that has been applied, so a
// replayed request is recognised instead of applied twice
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It returns true if the key was newly claimed
	// and false if it was already held.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key is currently held
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Forget releases key so the work can be attempted again
	Forget(ctx context.Context, key string) error

	// Close releases the store's resources
	Close() error
}
