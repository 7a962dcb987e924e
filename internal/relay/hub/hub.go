// Package hub implements the shared fan-out channel of the relay.
//
// Hub keeps a single ordered sequence of published messages in a fixed-capacity ring.
// Every Subscription is an independent cursor over that sequence, so all subscribers
// observe messages in the same publish order. Publishers are never blocked by slow
// subscribers: when a subscription falls more than capacity messages behind, its oldest
// unread messages are overwritten and the next Receive reports LaggedError.
// This trades delivery completeness for bounded memory.
package hub

import (
	"context"
	"sync"
	"sync/atomic"
)

// Message - an immutable line published to the Hub.
// Text includes line terminator. Nobody should modify Text after publishing,
// all subscribers share the same underlying bytes.
type Message struct {
	Text   []byte
	Origin string
}

// Hub - multi-producer, multi-consumer broadcast channel.
// All methods are safe for concurrent use.
type Hub struct {
	// mu guards ring, wake, closed and nextID.
	// Critical sections are constant-time and never do I/O.
	mu     sync.Mutex
	ring   *ring
	wake   chan struct{} // closed and replaced on every publish
	closed bool
	nextID uint64

	subs *registry
}

// New - builds Hub which retains at most capacity unread messages per subscription.
func New(capacity int) (*Hub, error) {
	r, err := newRing(capacity)
	if err != nil {
		return nil, err
	}
	return &Hub{
		ring: r,
		wake: make(chan struct{}),
		subs: newRegistry(),
	}, nil
}

// Capacity - returns max number of messages a subscription may fall behind without lag.
func (h *Hub) Capacity() int {
	return len(h.ring.slots)
}

// Subscribers - returns number of live subscriptions.
func (h *Hub) Subscribers() int {
	return h.subs.len()
}

// Publish - appends message to the shared sequence and wakes all waiting subscriptions.
// Returns number of subscriptions registered at publish time, zero subscribers is not an error.
func (h *Hub) Publish(m Message) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, ErrClosed
	}
	h.ring.push(m)
	close(h.wake)
	h.wake = make(chan struct{})
	return h.subs.len(), nil
}

// Subscribe - registers new cursor which observes only messages published after this call.
func (h *Hub) Subscribe() (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	h.nextID++
	s := &Subscription{
		id:   h.nextID,
		hub:  h,
		next: h.ring.next,
		done: make(chan struct{}),
	}
	h.subs.add(s)
	return s, nil
}

// Close - stops accepting messages and subscriptions and wakes all waiting subscriptions.
// Subscriptions may still read retained messages, after that they get ErrClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.wake)
}

// Subscription - a receiving cursor over the Hub sequence.
// Receive is not safe for concurrent use, Close may be called from any goroutine.
type Subscription struct {
	id   uint64
	hub  *Hub
	next uint64 // sequence number of the next message to receive

	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

// Receive - blocks until next message is available.
// Returns *LaggedError if the subscription missed overwritten messages, ctx.Err() on cancellation,
// ErrUnsubscribed after Close and ErrClosed when Hub is closed and nothing is left to read.
func (s *Subscription) Receive(ctx context.Context) (Message, error) {
	for {
		if s.closed.Load() {
			return Message{}, ErrUnsubscribed
		}
		h := s.hub
		h.mu.Lock()
		if oldest := h.ring.oldest(); s.next < oldest {
			skipped := oldest - s.next
			s.next = oldest
			h.mu.Unlock()
			return Message{}, &LaggedError{Skipped: skipped}
		}
		if m, ok := h.ring.at(s.next); ok {
			s.next++
			h.mu.Unlock()
			return m, nil
		}
		if h.closed {
			h.mu.Unlock()
			return Message{}, ErrClosed
		}
		wake := h.wake
		h.mu.Unlock()

		select {
		case <-wake:
		case <-s.done:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

// Close - unregisters subscription from Hub. It is safe to call Close several times.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.hub.subs.delete(s.id)
	})
}
