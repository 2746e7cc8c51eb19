package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gemerp/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Note string `json:"note"`
}

func itemEvent(eventType string, id int64) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Item", id), Note: "n"}
}

func ledgerEvent(eventType string, id int64) *testEvent {
	return &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Transaction", id)}
}

// recorder collects what it handles; seq, when set, records delivery order across handlers
type recorder struct {
	name   string
	topics []string
	err    error
	seq    *[]string

	mu      sync.Mutex
	handled []shared.DomainEvent
}

func newRecorder(topics ...string) *recorder {
	return &recorder{topics: topics}
}

func (r *recorder) Handle(ctx context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled = append(r.handled, event)
	if r.seq != nil {
		*r.seq = append(*r.seq, r.name)
	}
	return r.err
}

func (r *recorder) EventTypes() []string { return r.topics }

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handled)
}

type panickingHandler struct{}

func (panickingHandler) Handle(context.Context, shared.DomainEvent) error { panic("boom") }
func (panickingHandler) EventTypes() []string                           { return nil }

func TestInMemoryEventBus_Routing(t *testing.T) {
	tests := []struct {
		name   string
		topics []string
		events []shared.DomainEvent
		want   int
	}{
		{"exact event type", []string{"ItemCreated"}, []shared.DomainEvent{itemEvent("ItemCreated", 1)}, 1},
		{"other event type", []string{"ItemStatusChanged"}, []shared.DomainEvent{itemEvent("ItemCreated", 1)}, 0},
		{"aggregate topic", []string{"Transaction"}, []shared.DomainEvent{
			ledgerEvent("PaymentRecorded", 4), ledgerEvent("PaymentReverted", 4), itemEvent("ItemCreated", 4),
		}, 2},
		{"catch-all", nil, []shared.DomainEvent{itemEvent("ItemCreated", 1), ledgerEvent("TransactionOpened", 2)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := NewInMemoryEventBus(zap.NewNop())
			h := newRecorder(tt.topics...)
			bus.Subscribe(h)

			require.NoError(t, bus.Publish(context.Background(), tt.events...))
			assert.Equal(t, tt.want, h.count())
		})
	}
}

func TestInMemoryEventBus_ExplicitTopicsOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecorder("ItemCreated")
	bus.Subscribe(h, "PaymentRecorded")

	_ = bus.Publish(context.Background(), itemEvent("ItemCreated", 1), ledgerEvent("PaymentRecorded", 1))

	require.Equal(t, 1, h.count())
	assert.Equal(t, "PaymentRecorded", h.handled[0].EventType())
}

func TestInMemoryEventBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	var seq []string
	first := &recorder{name: "ledger", topics: []string{"Transaction"}, seq: &seq}
	second := &recorder{name: "audit", seq: &seq}
	bus.Subscribe(first)
	bus.Subscribe(second)

	_ = bus.Publish(context.Background(), ledgerEvent("PaymentRecorded", 1), itemEvent("ItemCreated", 1))

	assert.Equal(t, []string{"ledger", "audit", "audit"}, seq)
}

func TestInMemoryEventBus_FailingHandlersAreIsolated(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newRecorder()
	failing.err = errors.New("disk full")
	after := newRecorder()
	bus.Subscribe(failing)
	bus.Subscribe(panickingHandler{})
	bus.Subscribe(after)

	err := bus.Publish(context.Background(), ledgerEvent("TransactionDeactivated", 9))

	require.NoError(t, err)
	assert.Equal(t, 1, after.count())
	assert.Equal(t, int64(2), bus.Failures())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newRecorder("ItemCreated")
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), itemEvent("ItemCreated", 1))
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), itemEvent("ItemCreated", 2))

	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()
	assert.False(t, bus.IsRunning())

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.IsRunning())

	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.IsRunning())
}
