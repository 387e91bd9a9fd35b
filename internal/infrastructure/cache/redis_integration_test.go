//go:build integration

package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"github.com/exportexpress/backoffice/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisStores(t *testing.T) *Stores {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	stores, err := NewStoreFactory(config.RedisConfig{Host: host, Port: port.Int()}, WithFallback(false)).Create(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close() })
	require.True(t, stores.UsingRedis())
	return stores
}

func TestRedisStores(t *testing.T) {
	stores := newRedisStores(t)
	ctx := context.Background()

	t.Run("idempotency", func(t *testing.T) {
		ok, err := stores.Idempotency.MarkProcessed(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = stores.Idempotency.MarkProcessed(ctx, "evt-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		processed, err := stores.Idempotency.IsProcessed(ctx, "evt-1")
		require.NoError(t, err)
		assert.True(t, processed)
	})

	t.Run("sequences are unique under concurrency", func(t *testing.T) {
		var (
			mu   sync.Mutex
			seen = make(map[int64]bool)
			wg   sync.WaitGroup
		)
		for range 30 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := stores.Sequences.Next(ctx, shared.SequencePayment, seqDay)
				assert.NoError(t, err)
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}()
		}
		wg.Wait()
		assert.Len(t, seen, 30)

		client := stores.client
		ttl, err := client.TTL(ctx, SequenceKey(shared.SequencePayment, seqDay)).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 47*time.Hour)
	})
}
