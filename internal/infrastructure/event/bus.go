package event

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gemerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// InMemoryEventBus delivers domain events to in-process handlers. Workflows
// publish only after their unit of work commits, so a handler failure never
// rolls back ledger or item state; it is logged and counted instead.
type InMemoryEventBus struct {
	registry *HandlerRegistry
	logger   *zap.Logger
	running  atomic.Bool
	failures atomic.Int64
}

// NewInMemoryEventBus creates a new in-memory event bus
func NewInMemoryEventBus(logger *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		registry: NewHandlerRegistry(),
		logger:   logger,
	}
}

// Publish hands each event to every matching handler, in subscription order
func (b *InMemoryEventBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, ev := range events {
		handlers := b.registry.HandlersFor(ev)
		if len(handlers) == 0 {
			continue
		}
		start := time.Now()
		for _, h := range handlers {
			if err := deliver(ctx, h, ev); err != nil {
				b.failures.Add(1)
				b.logger.Error("Event handler failed",
					zap.String("event_type", ev.EventType()),
					zap.String("aggregate_type", ev.AggregateType()),
					zap.Int64("aggregate_id", ev.AggregateID()),
					zap.Stringer("event_id", ev.EventID()),
					zap.Error(err),
				)
			}
		}
		b.logger.Debug("Event delivered",
			zap.String("event_type", ev.EventType()),
			zap.Int("handlers", len(handlers)),
			zap.Duration("took", time.Since(start)),
		)
	}
	return nil
}

// Subscribe registers handler for topics, falling back to handler.EventTypes()
func (b *InMemoryEventBus) Subscribe(handler shared.EventHandler, topics ...string) {
	if len(topics) == 0 {
		topics = handler.EventTypes()
	}
	b.registry.Register(handler, topics...)
	b.logger.Debug("Event handler subscribed", zap.Strings("topics", topics))
}

// Unsubscribe removes a handler
func (b *InMemoryEventBus) Unsubscribe(handler shared.EventHandler) {
	b.registry.Unregister(handler)
}

// Start marks the bus as running
func (b *InMemoryEventBus) Start(ctx context.Context) error {
	b.running.Store(true)
	b.logger.Info("Event bus started", zap.Int("handlers", b.registry.Len()))
	return nil
}

// Stop marks the bus as stopped
func (b *InMemoryEventBus) Stop(ctx context.Context) error {
	b.running.Store(false)
	b.logger.Info("Event bus stopped", zap.Int64("handler_failures", b.failures.Load()))
	return nil
}

// IsRunning reports whether Start has been called without a matching Stop
func (b *InMemoryEventBus) IsRunning() bool {
	return b.running.Load()
}

// Failures returns how many handler invocations failed or panicked
func (b *InMemoryEventBus) Failures() int64 {
	return b.failures.Load()
}

func deliver(ctx context.Context, h shared.EventHandler, ev shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return h.Handle(ctx, ev)
}

var _ shared.EventBus = (*InMemoryEventBus)(nil)
