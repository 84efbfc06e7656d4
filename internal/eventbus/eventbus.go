// Package eventbus provides a small in-process publish/subscribe bus used
// to surface calibration progress to observers without coupling the
// orchestrator to them.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// Event is an arbitrary value passed on the bus.
type Event any

// EventBus is the publish/subscribe contract used by the orchestrator.
type EventBus interface {
	Publish(Event)
	Subscribe(buffer int) <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

type subscriber struct {
	ch      chan Event
	dropped atomic.Uint64
}

// Bus fans events out to subscribers. Delivery is non-blocking: a slow
// subscriber loses events rather than stalling the publisher, and the drop
// count is kept per subscriber.
type Bus struct {
	mu     sync.RWMutex
	subs   []*subscriber
	closed bool
}

// New creates an empty Bus.
func New() *Bus { return &Bus{} }

// Publish delivers the event to every subscriber whose buffer has room.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		select {
		case s.ch <- e:
		default:
			s.dropped.Add(1)
		}
	}
}

// Subscribe registers a subscriber with the given channel buffer and
// returns its receive channel. A non-positive buffer defaults to 16.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 16
	}
	s := &subscriber{ch: make(chan Event, buffer)}
	b.mu.Lock()
	if b.closed {
		close(s.ch)
	} else {
		b.subs = append(b.subs, s)
	}
	b.mu.Unlock()
	return s.ch
}

// Dropped returns how many events the subscriber missed because its buffer
// was full. Zero for unknown channels.
func (b *Bus) Dropped(sub <-chan Event) uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs {
		if s.ch == sub {
			return s.dropped.Load()
		}
	}
	return 0
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(s.ch)
			}
			return
		}
	}
}

// Close closes all subscriber channels and rejects further publishes.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}
