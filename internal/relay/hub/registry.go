package hub

import "sync"

type registry struct {
	mu   sync.RWMutex
	list map[uint64]*Subscription
}

func newRegistry() *registry {
	return &registry{
		list: make(map[uint64]*Subscription),
	}
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

func (r *registry) add(s *Subscription) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.list[s.id]; ok {
		return false
	}
	r.list[s.id] = s
	return true
}

func (r *registry) delete(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.list, id)
}
