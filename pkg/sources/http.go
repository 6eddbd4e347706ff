package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/illmade-knight/go-swr/pkg/swr"
	"github.com/rs/zerolog"
)

// HTTPSourceConfig holds configuration for the HTTP JSON source.
type HTTPSourceConfig struct {
	// Client is the http.Client to issue requests with. Defaults to
	// http.DefaultClient; supply one with a timeout in production.
	Client *http.Client
	// UserAgent is set on every request when non-empty.
	UserAgent string
}

// HTTPSource is a fetcher that treats the cache key as a URL, issues a GET
// request, and decodes the JSON response body into V. A non-2xx status is
// a fetch failure.
type HTTPSource[V any] struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewHTTPSource creates a new HTTPSource.
func NewHTTPSource[V any](cfg *HTTPSourceConfig, logger zerolog.Logger) *HTTPSource[V] {
	client := http.DefaultClient
	userAgent := ""
	if cfg != nil {
		if cfg.Client != nil {
			client = cfg.Client
		}
		userAgent = cfg.UserAgent
	}
	return &HTTPSource[V]{
		client:    client,
		userAgent: userAgent,
		logger:    logger.With().Str("component", "HTTPSource").Logger(),
	}
}

// Fetch issues a GET request for the key and decodes the JSON response.
func (s *HTTPSource[V]) Fetch(ctx context.Context, key string) (V, error) {
	var zero V

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return zero, fmt.Errorf("building request for '%s': %w", key, err)
	}
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug().Err(err).Str("url", key).Msg("HTTP request failed.")
		return zero, fmt.Errorf("GET %s: %w", key, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Debug().Int("status", resp.StatusCode).Str("url", key).Msg("Non-success HTTP status.")
		return zero, fmt.Errorf("GET %s: unexpected status %d", key, resp.StatusCode)
	}

	var value V
	if err := json.NewDecoder(resp.Body).Decode(&value); err != nil {
		return zero, fmt.Errorf("decoding response from %s: %w", key, err)
	}
	return value, nil
}

// Fetcher adapts the source to the swr.Fetcher function type.
func (s *HTTPSource[V]) Fetcher() swr.Fetcher[V] {
	return s.Fetch
}

// Close releases idle connections held by the underlying client.
func (s *HTTPSource[V]) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
