// Package lock provides the Redis-backed workflow locker used in front of
// the database transaction when several service replicas share one store.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds the locker timing settings
type Config struct {
	KeyPrefix  string
	TTL        time.Duration
	RetryEvery time.Duration
	MaxWait    time.Duration
}

// DefaultConfig returns the settings used when none are configured
func DefaultConfig() Config {
	return Config{
		KeyPrefix:  "gemerp:",
		TTL:        30 * time.Second,
		RetryEvery: 100 * time.Millisecond,
		MaxWait:    5 * time.Second,
	}
}

// RedisLocker implements common.Locker with bsm/redislock
type RedisLocker struct {
	client *redislock.Client
	cfg    Config
	logger *zap.Logger
}

// NewRedisLocker creates a locker over an existing Redis client
func NewRedisLocker(client redis.UniversalClient, cfg Config, logger *zap.Logger) *RedisLocker {
	defaults := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = defaults.RetryEvery
	}
	if cfg.MaxWait < 0 {
		cfg.MaxWait = 0
	}
	return &RedisLocker{
		client: redislock.New(client),
		cfg:    cfg,
		logger: logger,
	}
}

// Acquire obtains every key in the order given, or none of them.
// Callers pass keys pre-sorted (see common.ItemLockKeys) so that two workflows
// over overlapping records cannot wait on each other.
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	held := make([]*redislock.Lock, 0, len(keys))
	release := func() {
		// Release must succeed even when the workflow context was cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		for k := len(held) - 1; k >= 0; k-- {
			if err := held[k].Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				l.logger.Warn("failed to release workflow lock", zap.String("key", held[k].Key()), zap.Error(err))
			}
		}
	}

	for _, key := range keys {
		lock, err := l.client.Obtain(ctx, l.cfg.KeyPrefix+key, l.cfg.TTL, &redislock.Options{
			RetryStrategy: l.retryStrategy(),
		})
		if err != nil {
			release()
			return func() {}, obtainError(key, err)
		}
		held = append(held, lock)
	}
	return release, nil
}

func (l *RedisLocker) retryStrategy() redislock.RetryStrategy {
	attempts := int(l.cfg.MaxWait / l.cfg.RetryEvery)
	if attempts <= 0 {
		return redislock.NoRetry()
	}
	return redislock.LimitRetry(redislock.LinearBackoff(l.cfg.RetryEvery), attempts)
}

// obtainError maps a redislock failure to the domain taxonomy: a lock held by
// another workflow is a concurrency conflict, anything else means Redis is down.
func obtainError(key string, err error) error {
	if errors.Is(err, redislock.ErrNotObtained) {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			fmt.Sprintf("%s is being changed by another request, retry shortly", key))
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("obtain lock %s: %w: %v", key, shared.ErrStorageUnavailable, err)
}

var _ common.Locker = (*RedisLocker)(nil)
