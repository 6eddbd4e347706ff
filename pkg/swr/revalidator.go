package swr

import (
	"context"
	"time"
)

// runRevalidator is the background trigger loop: it waits on the external
// focus and reconnect channels and the refresh timer, and revalidates
// every watched key when any of them fires. Triggers landing while a key
// is already validating coalesce into the coordinator's in-flight fetch.
func (c *Cache[V]) runRevalidator(ctx context.Context) {
	var focus <-chan struct{}
	if c.cfg.RevalidateOnFocus {
		focus = c.cfg.FocusEvents
	}
	var reconnect <-chan struct{}
	if c.cfg.RevalidateOnReconnect {
		reconnect = c.cfg.ReconnectEvents
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	if c.cfg.RefreshInterval > 0 {
		timer = time.NewTimer(c.cfg.RefreshInterval)
		defer timer.Stop()
		timerC = timer.C
	}

	for {
		var reason string
		select {
		case <-ctx.Done():
			return
		case _, more := <-focus:
			if !more {
				focus = nil
				continue
			}
			reason = "focus"
		case _, more := <-reconnect:
			if !more {
				reconnect = nil
				continue
			}
			reason = "reconnect"
		case <-timerC:
			reason = "interval"
		}
		if timer != nil {
			timer.Reset(c.cfg.RefreshInterval)
		}
		c.revalidateWatched(ctx, reason)
	}
}

// revalidateWatched re-fetches every key with at least one live
// subscriber, using each key's recorded fetcher.
func (c *Cache[V]) revalidateWatched(ctx context.Context, reason string) {
	keys := c.registry.activeKeys()
	if len(keys) == 0 {
		return
	}
	c.logger.Debug().Str("reason", reason).Int("keys", len(keys)).Msg("Revalidating watched keys.")
	for _, key := range keys {
		fetch, ok := c.store.fetcherFor(key)
		if !ok {
			continue
		}
		c.wg.Add(1)
		go func(key string, fetch Fetcher[V]) {
			defer c.wg.Done()
			_, _ = c.coordinator.request(ctx, key, fetch)
		}(key, fetch)
	}
}

// runJanitor sweeps out entries whose subscribers have all detached and
// whose idle time exceeds the configured TTL.
func (c *Cache[V]) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			evicted := c.store.sweep(now, c.cfg.EntryTTL)
			if len(evicted) > 0 {
				c.logger.Debug().Strs("keys", evicted).Msg("Evicted idle entries.")
			}
		}
	}
}
