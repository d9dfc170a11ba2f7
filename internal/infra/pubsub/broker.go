// Package pubsub carries bike-status events from the engine to realtime
// transports. The broker is in-process fan-out; a websocket or SSE layer
// subscribes per connection and the core never sees the transport.
package pubsub

import (
	"context"
	"sync"

	"bike-reserve/internal/usecase/commands"
)

const subscriberBuffer = 16

// Broker implements commands.Publisher. Slow subscribers drop events instead
// of blocking the publisher; realtime status is best-effort by contract.
type Broker struct {
	mu   sync.RWMutex
	subs map[int]chan commands.BikeStatusEvent
	next int
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan commands.BikeStatusEvent)}
}

func (b *Broker) Publish(_ context.Context, event commands.BikeStatusEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe registers a consumer and returns its event channel plus a cancel
// function. The channel is closed on cancel; consumers must not close it.
func (b *Broker) Subscribe() (<-chan commands.BikeStatusEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan commands.BikeStatusEvent, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}
