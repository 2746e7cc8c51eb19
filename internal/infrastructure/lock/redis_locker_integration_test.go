//go:build integration

package lock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisLocker_Integration(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(ctx, ClientConfig{Addr: startRedis(t)})
	require.NoError(t, err)
	defer client.Close()

	cfg := Config{KeyPrefix: "test:", TTL: 5 * time.Second, RetryEvery: 20 * time.Millisecond, MaxWait: 100 * time.Millisecond}
	first := NewRedisLocker(client, cfg, zap.NewNop())
	second := NewRedisLocker(client, cfg, zap.NewNop())

	release, err := first.Acquire(ctx, common.ItemLockKeys(9, 3)...)
	require.NoError(t, err)

	t.Run("overlapping keys conflict", func(t *testing.T) {
		_, err := second.Acquire(ctx, common.ItemLockKey(3))
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("partial acquisition is rolled back", func(t *testing.T) {
		_, err := second.Acquire(ctx, common.ItemLockKey(1), common.ItemLockKey(9))
		require.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		n, err := client.Exists(ctx, "test:"+common.ItemLockKey(1)).Result()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	release()

	t.Run("released keys can be taken", func(t *testing.T) {
		again, err := second.Acquire(ctx, common.ItemLockKey(3))
		require.NoError(t, err)
		again()
	})
}
