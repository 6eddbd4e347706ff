// Package bridge broadcasts cache invalidations between processes over
// Google Cloud Pub/Sub. A Publisher emits an event whenever a key is
// mutated or invalidated locally; a Listener revalidates keys named in
// events published elsewhere, skipping events that originated from its own
// process.
package bridge
