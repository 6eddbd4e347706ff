// Package sources provides ready-made swr.Fetcher implementations for
// common sources of truth: HTTP endpoints returning JSON, Redis, and
// Firestore.
package sources
