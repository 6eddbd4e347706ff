package swr

import (
	"sync"

	"github.com/google/uuid"
)

// subscription ties a callback to a key. The uuid identifies the
// subscription so unsubscribing removes exactly one handle even when the
// same callback is registered twice.
type subscription[V any] struct {
	id       uuid.UUID
	key      string
	callback func(Entry[V])
}

// registry is the subscriber fan-out for a cache instance. Notification is
// synchronous and in registration order, over a snapshot of the callback
// set taken under the lock, so a callback may subscribe or unsubscribe
// without corrupting the iteration that invoked it.
type registry[V any] struct {
	mu   sync.Mutex
	subs map[string][]*subscription[V]
}

func newRegistry[V any]() *registry[V] {
	return &registry[V]{
		subs: make(map[string][]*subscription[V]),
	}
}

func (r *registry[V]) subscribe(key string, callback func(Entry[V])) *subscription[V] {
	sub := &subscription[V]{
		id:       uuid.New(),
		key:      key,
		callback: callback,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[key] = append(r.subs[key], sub)
	return sub
}

func (r *registry[V]) unsubscribe(sub *subscription[V]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := r.subs[sub.key]
	for i, s := range current {
		if s.id == sub.id {
			r.subs[sub.key] = append(current[:i:i], current[i+1:]...)
			break
		}
	}
	if len(r.subs[sub.key]) == 0 {
		delete(r.subs, sub.key)
	}
}

// notify invokes every callback registered for the entry's key. Callbacks
// run outside the registry lock; a subscription removed after the snapshot
// was taken may still receive this one notification.
func (r *registry[V]) notify(entry Entry[V]) {
	r.mu.Lock()
	snapshot := make([]*subscription[V], len(r.subs[entry.Key]))
	copy(snapshot, r.subs[entry.Key])
	r.mu.Unlock()

	for _, sub := range snapshot {
		sub.callback(entry)
	}
}

// count returns the number of live subscriptions for a key.
func (r *registry[V]) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[key])
}

// activeKeys returns every key with at least one live subscription.
func (r *registry[V]) activeKeys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.subs))
	for key := range r.subs {
		keys = append(keys, key)
	}
	return keys
}
