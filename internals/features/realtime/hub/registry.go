package hub

import (
	"context"
	"sync"
)

// Conn is one live subscriber. Send must be safe for concurrent callers and
// must honour ctx for its deadline.
type Conn interface {
	ID() string
	Send(ctx context.Context, n Notification) error
	Close() error
}

// Registry maps a key to the set of connections subscribed under it.
// Keys with no connections are pruned.
type Registry[K comparable] struct {
	mu   sync.RWMutex
	subs map[K]map[Conn]struct{}
}

func NewRegistry[K comparable]() *Registry[K] {
	return &Registry[K]{subs: make(map[K]map[Conn]struct{})}
}

func (r *Registry[K]) Add(key K, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.subs[key]
	if !ok {
		set = make(map[Conn]struct{})
		r.subs[key] = set
	}
	set[c] = struct{}{}
}

func (r *Registry[K]) Remove(key K, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(key, c)
}

func (r *Registry[K]) removeLocked(key K, c Conn) bool {
	set, ok := r.subs[key]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.subs, key)
	}
	return true
}

// RemoveConn drops c from every key and returns how many keys held it.
func (r *Registry[K]) RemoveConn(c Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key := range r.subs {
		if r.removeLocked(key, c) {
			n++
		}
	}
	return n
}

// Snapshot copies the current set so callers can send without the lock.
func (r *Registry[K]) Snapshot(key K) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.subs[key]
	out := make([]Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (r *Registry[K]) Len(key K) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs[key])
}

// Keys is mostly for diagnostics.
func (r *Registry[K]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]K, 0, len(r.subs))
	for k := range r.subs {
		out = append(out, k)
	}
	return out
}
