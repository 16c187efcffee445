package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers claimed keys for a while. Checkout uses it for
// client request keys and the event pipeline for delivered event IDs; both
// share one keyspace, separated by prefix.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl. It reports false when the key is
	// already held.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)

	// SetResult stores what the claimed operation produced, an order ID for
	// checkout, so a replay can return it.
	SetResult(ctx context.Context, key, result string, ttl time.Duration) error
	// GetResult reports false for unknown keys and for claims still in flight
	GetResult(ctx context.Context, key string) (string, bool, error)

	Release(ctx context.Context, key string) error
	Close() error
}

// IdempotencyConfig switches deduplication on and sets how long keys live
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig remembers keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}
}
