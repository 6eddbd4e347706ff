package swr

import (
	"sync"
	"time"
)

// entryState is the store's internal record for a key: the current entry,
// the most recently supplied fetcher (used by background revalidation),
// and when the key last lost its final subscriber.
type entryState[V any] struct {
	entry     Entry[V]
	fetcher   Fetcher[V]
	idleSince time.Time // zero while the key has subscribers
}

// store is the keyed entry store for a cache instance. It owns all entry
// state; mutation happens only through update and updateSilent so the
// registry is notified after a mutation completes, never mid-mutation.
type store[V any] struct {
	mu       sync.Mutex
	entries  map[string]*entryState[V]
	registry *registry[V]
}

func newStore[V any](reg *registry[V]) *store[V] {
	return &store[V]{
		entries:  make(map[string]*entryState[V]),
		registry: reg,
	}
}

// peek returns a snapshot of the entry for a key without side effects.
func (s *store[V]) peek(key string) (Entry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.entries[key]
	if !ok {
		return Entry[V]{Key: key}, false
	}
	return state.entry, true
}

// update applies a mutation to the entry for a key, creating the entry if
// absent, and notifies subscribers with the resulting snapshot. The
// notification runs outside the store lock.
func (s *store[V]) update(key string, mutate func(*Entry[V])) Entry[V] {
	snapshot := s.apply(key, mutate)
	s.registry.notify(snapshot)
	return snapshot
}

// updateSilent applies a mutation without notifying subscribers. Used for
// bookkeeping transitions, such as marking a fetch in flight, that
// consumers observe via polling rather than callbacks.
func (s *store[V]) updateSilent(key string, mutate func(*Entry[V])) Entry[V] {
	return s.apply(key, mutate)
}

func (s *store[V]) apply(key string, mutate func(*Entry[V])) Entry[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.entries[key]
	if !ok {
		state = &entryState[V]{
			entry:     Entry[V]{Key: key},
			idleSince: time.Now(),
		}
		s.entries[key] = state
	}
	mutate(&state.entry)
	state.entry.Key = key
	return state.entry
}

// setFetcher records the fetcher to use for background revalidation of a
// key. The most recent registration wins.
func (s *store[V]) setFetcher(key string, fetch Fetcher[V]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.entries[key]
	if !ok {
		state = &entryState[V]{
			entry:     Entry[V]{Key: key},
			idleSince: time.Now(),
		}
		s.entries[key] = state
	}
	state.fetcher = fetch
}

// fetcherFor returns the recorded fetcher for a key, if any.
func (s *store[V]) fetcherFor(key string) (Fetcher[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.entries[key]
	if !ok || state.fetcher == nil {
		return nil, false
	}
	return state.fetcher, true
}

// markActive clears the idle timestamp for a key; the janitor will not
// evict it while active.
func (s *store[V]) markActive(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.entries[key]; ok {
		state.idleSince = time.Time{}
	}
}

// markIdle records that a key lost its final subscriber, starting the
// eviction clock.
func (s *store[V]) markIdle(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.entries[key]; ok {
		state.idleSince = time.Now()
	}
}

// sweep removes every entry that has been idle for longer than ttl and has
// no fetch in flight. It returns the evicted keys.
func (s *store[V]) sweep(now time.Time, ttl time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted []string
	for key, state := range s.entries {
		if state.idleSince.IsZero() || state.entry.IsValidating {
			continue
		}
		if now.Sub(state.idleSince) > ttl {
			delete(s.entries, key)
			evicted = append(evicted, key)
		}
	}
	return evicted
}

// len reports the number of stored entries.
func (s *store[V]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
