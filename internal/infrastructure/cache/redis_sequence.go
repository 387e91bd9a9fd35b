package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// sequenceTTL keeps a day's counter around long enough to cover clock skew
// between instances near midnight.
const sequenceTTL = 48 * time.Hour

// RedisSequenceReserver reserves per-day counters with INCR
type RedisSequenceReserver struct {
	client *redis.Client
}

// NewRedisSequenceReserver creates a reserver on an existing client
func NewRedisSequenceReserver(client *redis.Client) *RedisSequenceReserver {
	return &RedisSequenceReserver{client: client}
}

// SequenceKey returns the Redis key holding the (name, day) counter
func SequenceKey(name string, day time.Time) string {
	return fmt.Sprintf("%sseq:%s:%s", keyPrefix, name, day.UTC().Format("20060102"))
}

// Next increments the counter and sets its expiry on first use
func (r *RedisSequenceReserver) Next(ctx context.Context, name string, day time.Time) (int64, error) {
	key := SequenceKey(name, day)

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, sequenceTTL)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("reserve sequence %s: %w", key, err)
	}
	return incr.Val(), nil
}

var _ shared.SequenceReserver = (*RedisSequenceReserver)(nil)
