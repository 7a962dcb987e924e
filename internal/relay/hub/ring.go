package hub

import "fmt"

// ring - keeps a limited number of latest messages addressed by global sequence number.
// When ring is full, every push overwrites the oldest item.
// ring is not safe for concurrent use, Hub guards it.
type ring struct {
	slots []Message
	next  uint64 // sequence number for the next pushed message
}

func newRing(capacity int) (*ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("hub.newRing: capacity (%d) must be greater than 0", capacity)
	}
	return &ring{slots: make([]Message, capacity)}, nil
}

func (r *ring) capacity() uint64 {
	return uint64(len(r.slots))
}

// push - stores message and returns its sequence number.
func (r *ring) push(m Message) uint64 {
	seq := r.next
	r.slots[seq%r.capacity()] = m
	r.next++
	return seq
}

// oldest - returns sequence number of the oldest retained message.
func (r *ring) oldest() uint64 {
	if r.next < r.capacity() {
		return 0
	}
	return r.next - r.capacity()
}

// at - returns message with given sequence number if it is still retained.
func (r *ring) at(seq uint64) (Message, bool) {
	if seq < r.oldest() || seq >= r.next {
		return Message{}, false
	}
	return r.slots[seq%r.capacity()], true
}
