package swr

import (
	"context"
)

// mutateOptions controls what happens after the optimistic write.
type mutateOptions struct {
	revalidate bool
}

// MutateOption adjusts the behavior of Mutate and MutateFn.
type MutateOption func(*mutateOptions)

// WithoutRevalidate applies the optimistic write without reconciling
// against the source of truth afterwards.
func WithoutRevalidate() MutateOption {
	return func(o *mutateOptions) {
		o.revalidate = false
	}
}

// Mutate writes value to the key immediately and notifies subscribers
// (an optimistic update), then revalidates against the key's recorded
// fetcher unless WithoutRevalidate is given. If reconciliation fails the
// error lands on the entry beside the optimistic data, per the usual
// stale-data policy; it is not rolled back. Callers wanting rollback
// should capture the returned pre-mutation entry and re-Mutate it on
// failure.
func (c *Cache[V]) Mutate(ctx context.Context, key string, value V, opts ...MutateOption) Entry[V] {
	return c.MutateFn(ctx, key, func(V, bool) V { return value }, opts...)
}

// MutateFn is Mutate with an updater: update receives the current data
// (and whether any exists) and returns the new value to apply.
func (c *Cache[V]) MutateFn(ctx context.Context, key string, update func(old V, hasOld bool) V, opts ...MutateOption) Entry[V] {
	options := mutateOptions{revalidate: true}
	for _, opt := range opts {
		opt(&options)
	}

	previous, _ := c.store.peek(key)

	c.store.update(key, func(e *Entry[V]) {
		e.Data = update(e.Data, e.HasData)
		e.HasData = true
		e.Err = nil
	})
	c.logger.Debug().Str("key", key).Bool("revalidate", options.revalidate).Msg("Applied optimistic mutation.")

	if options.revalidate {
		if fetch, ok := c.store.fetcherFor(key); ok {
			_, _ = c.coordinator.request(ctx, key, fetch)
		} else {
			c.logger.Debug().Str("key", key).Msg("No fetcher recorded; skipping post-mutation revalidation.")
		}
	}

	return previous
}
