package swr

import (
	"context"
	"time"
)

// Fetcher is a generic function type for fetching data by a key.
// The cache never interprets the key beyond using it as cache identity;
// it is passed through to this function unchanged.
type Fetcher[V any] func(ctx context.Context, key string) (V, error)

// Entry is a point-in-time snapshot of the cached state for a key.
// Entries are delivered to subscribers by value; the cache never hands out
// a reference to its internal state.
type Entry[V any] struct {
	// Key is the cache identity this entry belongs to.
	Key string

	// Data is the last successfully fetched or mutated value. It is only
	// meaningful when HasData is true. A failed revalidation does not clear
	// it; stale data is preferred over a blank state.
	Data V

	// HasData reports whether Data holds a real value.
	HasData bool

	// Err is the failure from the most recent fetch, or nil. Errors are
	// surfaced here as values rather than returned to subscribers.
	Err error

	// LastFetchedAt is when the most recent fetch for this key completed.
	LastFetchedAt time.Time

	// IsValidating is true while a fetch for this key is in flight,
	// regardless of whether stale data exists.
	IsValidating bool
}

// IsLoading reports whether this is a first fetch with nothing to show yet:
// no data, no error, and a fetch in flight.
func (e Entry[V]) IsLoading() bool {
	return !e.HasData && e.Err == nil && e.IsValidating
}
