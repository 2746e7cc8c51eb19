package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry_RegisterTwiceWidensTopics(t *testing.T) {
	r := NewHandlerRegistry()
	h := newRecorder()
	r.Register(h, "ItemCreated")
	r.Register(h, "PaymentRecorded")

	assert.Equal(t, 1, r.Len())
	assert.Len(t, r.HandlersFor(itemEvent("ItemCreated", 1)), 1)
	assert.Len(t, r.HandlersFor(ledgerEvent("PaymentRecorded", 1)), 1)
	assert.Empty(t, r.HandlersFor(ledgerEvent("PaymentReverted", 1)))
}

func TestHandlerRegistry_CatchAllSticks(t *testing.T) {
	r := NewHandlerRegistry()
	h := newRecorder()
	r.Register(h)
	r.Register(h, "ItemCreated")

	assert.Len(t, r.HandlersFor(ledgerEvent("TransactionOpened", 3)), 1)

	other := newRecorder()
	r.Register(other, "Item")
	r.Register(other)
	assert.Len(t, r.HandlersFor(ledgerEvent("TransactionOpened", 3)), 2)
}

func TestHandlerRegistry_AggregateTopic(t *testing.T) {
	r := NewHandlerRegistry()
	h := newRecorder()
	r.Register(h, "Item")

	assert.Len(t, r.HandlersFor(itemEvent("ItemCreated", 1)), 1)
	assert.Len(t, r.HandlersFor(itemEvent("ItemStatusChanged", 1)), 1)
	assert.Empty(t, r.HandlersFor(ledgerEvent("PaymentRecorded", 1)))
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	r := NewHandlerRegistry()
	a, b, c := newRecorder(), newRecorder(), newRecorder()
	r.Register(a, "ItemCreated")
	r.Register(b)
	r.Register(c, "Item")

	r.Unregister(b)
	r.Unregister(newRecorder())

	assert.Equal(t, 2, r.Len())
	got := r.HandlersFor(itemEvent("ItemCreated", 1))
	if assert.Len(t, got, 2) {
		assert.Same(t, a, got[0])
		assert.Same(t, c, got[1])
	}
}
