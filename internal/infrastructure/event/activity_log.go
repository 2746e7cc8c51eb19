package event

import (
	"context"
	"encoding/json"

	"github.com/gemerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ActivityLogger writes every domain event to the structured log, with the
// event body as JSON. It is the audit trail of item and ledger changes.
type ActivityLogger struct {
	logger *zap.Logger
}

// NewActivityLogger creates an ActivityLogger
func NewActivityLogger(logger *zap.Logger) *ActivityLogger {
	return &ActivityLogger{logger: logger.Named("activity")}
}

// Handle logs the event
func (h *ActivityLogger) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.logger.Info(event.EventType(),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.Int64("aggregate_id", event.AggregateID()),
		zap.Time("occurred_at", event.OccurredAt()),
		zap.ByteString("payload", payload),
	)
	return nil
}

// EventTypes returns nil: the logger receives all events
func (h *ActivityLogger) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*ActivityLogger)(nil)
