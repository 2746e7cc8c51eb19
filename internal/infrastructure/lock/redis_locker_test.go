package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestObtainError(t *testing.T) {
	err := obtainError("ledger:txn:1", redislock.ErrNotObtained)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Contains(t, err.Error(), "ledger:txn:1")

	err = obtainError("ledger:txn:1", errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, err, shared.ErrStorageUnavailable)

	err = obtainError("ledger:txn:1", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRedisLocker_Defaults(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	l := NewRedisLocker(client, Config{MaxWait: -time.Second}, zap.NewNop())
	assert.Equal(t, 30*time.Second, l.cfg.TTL)
	assert.Equal(t, 100*time.Millisecond, l.cfg.RetryEvery)
	assert.Zero(t, l.cfg.MaxWait)
	assert.NotNil(t, l.retryStrategy())
}

func TestRedisLocker_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	l := NewRedisLocker(client, Config{TTL: time.Second, RetryEvery: 10 * time.Millisecond}, zap.NewNop())

	release, err := l.Acquire(context.Background(), "inventory:item:1")

	assert.ErrorIs(t, err, shared.ErrStorageUnavailable)
	assert.NotNil(t, release)
	release()
}
