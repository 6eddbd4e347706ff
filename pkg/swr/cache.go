package swr

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Cache is a keyed stale-while-revalidate cache. It is safe for concurrent
// use. A Cache is an explicit, injectable instance with its own store and
// subscriber registry; create isolated instances for tests rather than
// sharing a process-wide one.
type Cache[V any] struct {
	cfg         *Config
	logger      zerolog.Logger
	store       *store[V]
	registry    *registry[V]
	coordinator *coordinator[V]

	mu      sync.Mutex
	runCtx  context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// New creates a Cache with the given policy config. The cache is usable
// immediately for Watch, Request and Mutate; Start enables the background
// revalidation and eviction loops.
func New[V any](cfg *Config, logger zerolog.Logger) (*Cache[V], error) {
	if cfg == nil {
		cfg = NewConfigDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cache config: %w", err)
	}

	reg := newRegistry[V]()
	st := newStore(reg)
	cacheLogger := logger.With().Str("component", "swr.Cache").Logger()

	return &Cache[V]{
		cfg:         cfg,
		logger:      cacheLogger,
		store:       st,
		registry:    reg,
		coordinator: newCoordinator(st, cfg.FetchTimeout, cacheLogger),
	}, nil
}

// Start launches the revalidator and janitor goroutines. Background work
// stops when ctx is cancelled or Stop is called.
func (c *Cache[V]) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("cache already started")
	}
	c.started = true
	c.runCtx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runRevalidator(c.runCtx)
	}()

	if c.cfg.EntryTTL > 0 {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.runJanitor(c.runCtx)
		}()
	}

	c.logger.Info().
		Bool("revalidate_on_focus", c.cfg.RevalidateOnFocus).
		Bool("revalidate_on_reconnect", c.cfg.RevalidateOnReconnect).
		Dur("refresh_interval", c.cfg.RefreshInterval).
		Msg("Cache background loops started.")
	return nil
}

// Stop cancels background work and waits for it to finish. In-flight
// fetches observe the cancelled context through their fetcher.
func (c *Cache[V]) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// lifecycleCtx is the context background-triggered fetches run on.
func (c *Cache[V]) lifecycleCtx() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runCtx != nil {
		return c.runCtx
	}
	return context.Background()
}

// Watch subscribes to a key and triggers an initial revalidation with the
// supplied fetcher. onChange is invoked synchronously, in subscription
// order, every time a fetch completes or a mutation is applied for the
// key. The fetcher is recorded for the key and reused by background
// revalidation; the most recent Watch for a key wins.
func (c *Cache[V]) Watch(key string, fetch Fetcher[V], onChange func(Entry[V])) (*Watcher[V], error) {
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	if fetch == nil {
		return nil, fmt.Errorf("fetcher cannot be nil")
	}
	if onChange == nil {
		onChange = func(Entry[V]) {}
	}

	c.store.setFetcher(key, fetch)
	sub := c.registry.subscribe(key, onChange)
	c.store.markActive(key)

	runCtx := c.lifecycleCtx()
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.coordinator.request(runCtx, key, fetch)
	}()

	return &Watcher[V]{cache: c, sub: sub, key: key}, nil
}

// Request performs a one-shot fetch for a key through the deduplicating
// coordinator, without subscribing. The result is written to the store and
// any existing subscribers are notified.
func (c *Cache[V]) Request(ctx context.Context, key string, fetch Fetcher[V]) (V, error) {
	return c.coordinator.request(ctx, key, fetch)
}

// Revalidate re-fetches a key using its recorded fetcher. It is a no-op
// returning an error if no fetcher has been recorded for the key.
func (c *Cache[V]) Revalidate(ctx context.Context, key string) error {
	fetch, ok := c.store.fetcherFor(key)
	if !ok {
		return fmt.Errorf("no fetcher recorded for key '%s'", key)
	}
	_, err := c.coordinator.request(ctx, key, fetch)
	return err
}

// Invalidate drops the cached data for a key, notifies subscribers, and
// revalidates if the key has a recorded fetcher.
func (c *Cache[V]) Invalidate(ctx context.Context, key string) error {
	c.store.update(key, func(e *Entry[V]) {
		var zero V
		e.Data = zero
		e.HasData = false
		e.Err = nil
	})
	fetch, ok := c.store.fetcherFor(key)
	if !ok {
		return nil
	}
	_, err := c.coordinator.request(ctx, key, fetch)
	return err
}

// Peek returns the current entry for a key without triggering a fetch.
func (c *Cache[V]) Peek(key string) (Entry[V], bool) {
	return c.store.peek(key)
}

// Len reports the number of entries currently held.
func (c *Cache[V]) Len() int {
	return c.store.len()
}

// Watcher is a live subscription to a key, returned by Watch.
type Watcher[V any] struct {
	cache    *Cache[V]
	sub      *subscription[V]
	key      string
	stopOnce sync.Once
}

// Key returns the watched key.
func (w *Watcher[V]) Key() string {
	return w.key
}

// Snapshot returns the current entry for the watched key.
func (w *Watcher[V]) Snapshot() Entry[V] {
	entry, _ := w.cache.store.peek(w.key)
	return entry
}

// Stop detaches the watcher. An in-flight fetch shared with other
// subscribers is not cancelled; it completes and updates the store, but
// this watcher receives no further notifications. When the final watcher
// for a key detaches, the key becomes eligible for janitor eviction.
func (w *Watcher[V]) Stop() {
	w.stopOnce.Do(func() {
		w.cache.registry.unsubscribe(w.sub)
		if w.cache.registry.count(w.key) == 0 {
			w.cache.store.markIdle(w.key)
		}
	})
}
