// Package events fans device state changes out to local subscribers such as
// the SSE endpoint.
package events

import (
	"sync"

	"github.com/eneby-bridge/eneby-go/internal/models"
)

const subBufferSize = 8

// Bus is a non-blocking publish-subscribe bus. Slow subscribers lose
// events rather than blocking the control loop.
type Bus struct {
	mu      sync.Mutex
	subs    map[string]chan models.DeviceState
	last    models.DeviceState
	hasLast bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string]chan models.DeviceState),
	}
}

// Subscribe registers id for states published from now on; use Last for
// the current one. Call Unsubscribe when done.
func (b *Bus) Subscribe(id string) <-chan models.DeviceState {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan models.DeviceState, subBufferSize)
	b.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish sends state to every subscriber, dropping it for any whose
// buffer is full.
func (b *Bus) Publish(state models.DeviceState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last, b.hasLast = state, true
	for _, ch := range b.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

// Last returns the most recently published state.
func (b *Bus) Last() (models.DeviceState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.hasLast
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
