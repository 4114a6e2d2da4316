// Package pubsub fans values out to any number of subscribers. Slow
// subscribers miss values instead of blocking the publisher.
package pubsub

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SubscriptionID identifies one subscriber.
type SubscriptionID int64

// Pubsub is a broadcast hub for values of type T.
type Pubsub[T any] struct {
	nextID      SubscriptionID
	subscribers map[SubscriptionID]chan T
	buffer      int
	mu          sync.RWMutex
	log         zerolog.Logger
}

// New creates a hub whose subscriber channels hold up to buffer values.
func New[T any](buffer int) *Pubsub[T] {
	return &Pubsub[T]{
		subscribers: make(map[SubscriptionID]chan T),
		buffer:      buffer,
		log:         log.With().Str("component", "pubsub").Logger(),
	}
}

// Subscribe registers a new subscriber. The channel is closed by
// Unsubscribe or Close.
func (p *Pubsub[T]) Subscribe() (SubscriptionID, <-chan T) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan T, p.buffer)
	id := p.nextID
	p.subscribers[id] = ch
	p.nextID++

	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel. Unknown ids
// are ignored.
func (p *Pubsub[T]) Unsubscribe(id SubscriptionID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, ok := p.subscribers[id]
	if !ok {
		return
	}
	delete(p.subscribers, id)
	close(ch)
}

// Publish offers msg to every subscriber without blocking.
func (p *Pubsub[T]) Publish(msg T) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for id, ch := range p.subscribers {
		select {
		case ch <- msg:
		default:
			p.log.Warn().
				Int64("subscription_id", int64(id)).
				Msg("message dropped, channel full")
		}
	}
}

// Len returns the number of subscribers.
func (p *Pubsub[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}

// Close unsubscribes everyone.
func (p *Pubsub[T]) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, ch := range p.subscribers {
		delete(p.subscribers, id)
		close(ch)
	}
}
