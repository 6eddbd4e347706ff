// Package swr provides a generic, keyed stale-while-revalidate cache.
//
// Consumers watch a key and receive the cached value immediately while a
// fresh value is fetched in the background. Concurrent fetches for the same
// key are deduplicated, fetch failures surface as values beside the last
// known good data, and background triggers (focus, reconnect, interval)
// keep watched keys fresh.
package swr
