package swr

import "fmt"

// FetchError wraps a fetcher failure for a key. It is stored on the Entry
// rather than returned to subscribers, so consumers can render an error
// state without losing previously fetched data.
type FetchError struct {
	Key   string
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch for key '%s' failed: %v", e.Key, e.Cause)
}

// Unwrap exposes the underlying fetcher error for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Cause
}
