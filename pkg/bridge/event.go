package bridge

import "time"

// InvalidationEvent is the wire payload announcing that a key's cached
// value should no longer be trusted.
type InvalidationEvent struct {
	// Key is the cache key to revalidate.
	Key string `json:"key"`

	// Origin identifies the process that published the event, so a
	// listener can skip invalidations it caused itself.
	Origin string `json:"origin"`

	// OccurredAt is when the mutation or invalidation happened.
	OccurredAt time.Time `json:"occurredAt"`
}
