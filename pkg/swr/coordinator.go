package swr

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// coordinator funnels all fetches for a cache instance through a
// singleflight group keyed by cache key, so at most one fetch per key is
// in flight no matter how many consumers request it. Callers joining an
// existing flight share its result; the flight runs on the context of the
// caller that started it, so a consumer detaching later never cancels a
// shared fetch.
type coordinator[V any] struct {
	flights      singleflight.Group
	store        *store[V]
	fetchTimeout time.Duration
	logger       zerolog.Logger
}

func newCoordinator[V any](st *store[V], fetchTimeout time.Duration, logger zerolog.Logger) *coordinator[V] {
	return &coordinator[V]{
		store:        st,
		fetchTimeout: fetchTimeout,
		logger:       logger.With().Str("component", "coordinator").Logger(),
	}
}

// request fetches the value for a key, deduplicated by key. On success the
// store gets the new data and a cleared error; on failure the store keeps
// its last known data and records the error. Either way subscribers are
// notified exactly once per completed fetch.
func (c *coordinator[V]) request(ctx context.Context, key string, fetch Fetcher[V]) (V, error) {
	result, err, shared := c.flights.Do(key, func() (interface{}, error) {
		return c.fetch(ctx, key, fetch)
	})
	if shared {
		c.logger.Debug().Str("key", key).Msg("Joined in-flight fetch.")
	}
	if err != nil {
		var zero V
		return zero, err
	}
	return result.(V), nil
}

func (c *coordinator[V]) fetch(ctx context.Context, key string, fetch Fetcher[V]) (interface{}, error) {
	c.store.updateSilent(key, func(e *Entry[V]) {
		e.IsValidating = true
	})

	fetchCtx := ctx
	if c.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.fetchTimeout)
		defer cancel()
	}

	value, err := fetch(fetchCtx, key)
	completedAt := time.Now()

	if err != nil {
		fetchErr := &FetchError{Key: key, Cause: err}
		c.logger.Debug().Err(err).Str("key", key).Msg("Fetch failed; retaining stale data.")
		c.store.update(key, func(e *Entry[V]) {
			e.Err = fetchErr
			e.IsValidating = false
			e.LastFetchedAt = completedAt
		})
		return nil, fetchErr
	}

	c.store.update(key, func(e *Entry[V]) {
		e.Data = value
		e.HasData = true
		e.Err = nil
		e.IsValidating = false
		e.LastFetchedAt = completedAt
	})
	return value, nil
}
