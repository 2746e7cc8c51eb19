// Package processing runs the stages that turn stock into new stock:
// cut and polish, sorting into lots and heat treatment.
package processing

import (
	"context"

	"github.com/gemerp/backend/internal/application/common"
	"github.com/gemerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// runtime holds what every processing service shares
type runtime struct {
	scope          common.TransactionScope
	locker         common.Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

func newRuntime(scope common.TransactionScope, opts []Option) runtime {
	rt := runtime{
		scope:  scope,
		locker: common.NoopLocker{},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&rt)
	}
	return rt
}

// Option configures a processing service
type Option func(*runtime)

// WithLocker sets the distributed locker
func WithLocker(locker common.Locker) Option {
	return func(rt *runtime) {
		if locker != nil {
			rt.locker = locker
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(rt *runtime) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithEventPublisher sets the publisher that receives events after commit
func WithEventPublisher(publisher shared.EventPublisher) Option {
	return func(rt *runtime) {
		rt.eventPublisher = publisher
	}
}

// locked runs fn in one unit of work while holding the item locks for ids.
// Collected events are published only after the commit.
func (rt runtime) locked(ctx context.Context, ids []int64, fn func(repos common.TransactionalRepositories, events *common.EventCollector) error) error {
	release, err := rt.locker.Acquire(ctx, common.ItemLockKeys(ids...)...)
	if err != nil {
		return err
	}
	defer release()

	events := &common.EventCollector{}
	if err := rt.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		return fn(repos, events)
	}); err != nil {
		return err
	}
	events.Publish(ctx, rt.eventPublisher, rt.logger)
	return nil
}
