package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers which (subscriber, event) keys were already
// delivered, so a redelivered event reaches each subscriber at most once per TTL.
type IdempotencyStore interface {
	// MarkProcessed records key and reports whether it was absent or expired
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig controls deduplication of event deliveries.
// A disabled config passes every delivery through.
type IdempotencyConfig struct {
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig keeps keys for a day
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{TTL: 24 * time.Hour, Enabled: true}
}
