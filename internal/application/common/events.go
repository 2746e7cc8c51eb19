package common

import (
	"context"

	"github.com/gemerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventCollector gathers domain events raised inside a transaction so they can be
// published only after it commits.
type EventCollector struct {
	events []shared.DomainEvent
}

// Collect takes the pending events of each aggregate and clears them
func (c *EventCollector) Collect(aggregates ...shared.AggregateRoot) {
	for _, a := range aggregates {
		if a == nil {
			continue
		}
		c.events = append(c.events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
}

// Publish sends the collected events. Publish failures are logged, not returned:
// the workflow has already committed.
func (c *EventCollector) Publish(ctx context.Context, publisher shared.EventPublisher, log *zap.Logger) {
	if publisher == nil || len(c.events) == 0 {
		c.events = nil
		return
	}
	if err := publisher.Publish(ctx, c.events...); err != nil && log != nil {
		log.Warn("failed to publish domain events", zap.Int("count", len(c.events)), zap.Error(err))
	}
	c.events = nil
}

// Len returns the number of collected events
func (c *EventCollector) Len() int {
	return len(c.events)
}
