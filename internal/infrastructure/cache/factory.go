package cache

import (
	"context"
	"fmt"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the Redis-or-fallback components the application needs
type Stores struct {
	Sequences   shared.SequenceReserver
	Idempotency shared.IdempotencyStore
	client      *redis.Client
}

// UsingRedis reports whether the stores are backed by Redis
func (s *Stores) UsingRedis() bool {
	return s.client != nil
}

// Close releases the idempotency store and the Redis client
func (s *Stores) Close() error {
	err := s.Idempotency.Close()
	if s.client != nil {
		// RedisIdempotencyStore already closed the shared client
		if _, ok := s.Idempotency.(*RedisIdempotencyStore); !ok {
			if cerr := s.client.Close(); err == nil {
				err = cerr
			}
		}
	}
	return err
}

// StoreFactory builds Stores from configuration
type StoreFactory struct {
	redisConfig      config.RedisConfig
	logger           *zap.Logger
	allowFallback    bool
	fallbackSequence shared.SequenceReserver
}

// StoreFactoryOption configures a StoreFactory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithFallback controls whether an unreachable Redis is tolerated.
// Default is true.
func WithFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowFallback = allow
	}
}

// WithFallbackSequence sets the reserver used without Redis, usually the
// database-backed one. Defaults to an in-memory reserver.
func WithFallbackSequence(r shared.SequenceReserver) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.fallbackSequence = r
	}
}

// NewStoreFactory creates a factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:   cfg,
		logger:        zap.NewNop(),
		allowFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.fallbackSequence == nil {
		f.fallbackSequence = NewInMemorySequenceReserver()
	}
	return f
}

// Create connects to Redis when a host is configured. Without a host, or
// when Redis is unreachable and fallback is allowed, it returns the
// fallback sequence reserver and an in-memory idempotency store.
func (f *StoreFactory) Create(ctx context.Context) (*Stores, error) {
	if f.redisConfig.Host == "" {
		f.logger.Info("redis not configured, using fallback stores")
		return f.fallback(), nil
	}

	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		if !f.allowFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		f.logger.Warn("redis unavailable, using fallback stores; duplicate event handling is possible across instances",
			zap.String("addr", f.redisConfig.Addr()),
			zap.Error(err),
		)
		return f.fallback(), nil
	}

	f.logger.Info("using redis stores", zap.String("addr", f.redisConfig.Addr()))
	return &Stores{
		Sequences:   NewRedisSequenceReserver(client),
		Idempotency: NewRedisIdempotencyStore(client, ""),
		client:      client,
	}, nil
}

func (f *StoreFactory) fallback() *Stores {
	return &Stores{
		Sequences:   f.fallbackSequence,
		Idempotency: NewInMemoryIdempotencyStore(),
	}
}
