package event

import (
	"sync"

	"github.com/gemerp/backend/internal/domain/shared"
)

// subscription binds a handler to a set of topics. A topic is an event type
// ("PaymentRecorded") or an aggregate type ("Transaction"); nil topics match everything.
type subscription struct {
	handler shared.EventHandler
	topics  map[string]struct{}
}

func (s subscription) matches(event shared.DomainEvent) bool {
	if s.topics == nil {
		return true
	}
	if _, ok := s.topics[event.EventType()]; ok {
		return true
	}
	_, ok := s.topics[event.AggregateType()]
	return ok
}

// HandlerRegistry keeps subscriptions in registration order so that handlers
// for one event always run in the order they were subscribed
type HandlerRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{}
}

// Register subscribes handler to topics. Registering a handler again widens its
// topics instead of adding a second subscription; an empty topic list makes it a catch-all.
func (r *HandlerRegistry) Register(handler shared.EventHandler, topics ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.subs {
		if r.subs[i].handler != handler {
			continue
		}
		if len(topics) == 0 {
			r.subs[i].topics = nil
		} else if r.subs[i].topics != nil {
			for _, t := range topics {
				r.subs[i].topics[t] = struct{}{}
			}
		}
		return
	}

	sub := subscription{handler: handler}
	if len(topics) > 0 {
		sub.topics = make(map[string]struct{}, len(topics))
		for _, t := range topics {
			sub.topics[t] = struct{}{}
		}
	}
	r.subs = append(r.subs, sub)
}

// Unregister drops the handler's subscription
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.subs[:0]
	for _, s := range r.subs {
		if s.handler != handler {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(r.subs); i++ {
		r.subs[i] = subscription{}
	}
	r.subs = kept
}

// HandlersFor returns the handlers whose topics match the event
func (r *HandlerRegistry) HandlersFor(event shared.DomainEvent) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []shared.EventHandler
	for _, s := range r.subs {
		if s.matches(event) {
			out = append(out, s.handler)
		}
	}
	return out
}

// Len returns the number of subscribed handlers
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
