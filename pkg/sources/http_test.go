package sources_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/illmade-knight/go-swr/pkg/sources"
	"github.com/illmade-knight/go-swr/pkg/swr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type character struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestHTTPSource_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes a successful JSON response", func(t *testing.T) {
		// Arrange
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": 1, "name": "Rick"}`))
		}))
		t.Cleanup(server.Close)

		source := sources.NewHTTPSource[character](nil, zerolog.Nop())
		t.Cleanup(func() { _ = source.Close() })

		// Act
		got, err := source.Fetch(ctx, server.URL+"/characters/1")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, character{ID: 1, Name: "Rick"}, got)
	})

	t.Run("non-success status is a fetch failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		t.Cleanup(server.Close)

		source := sources.NewHTTPSource[character](nil, zerolog.Nop())
		_, err := source.Fetch(ctx, server.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 500")
	})

	t.Run("malformed body is a fetch failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{not json`))
		}))
		t.Cleanup(server.Close)

		source := sources.NewHTTPSource[character](nil, zerolog.Nop())
		_, err := source.Fetch(ctx, server.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding response")
	})

	t.Run("sets the configured user agent", func(t *testing.T) {
		var seenAgent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenAgent = r.Header.Get("User-Agent")
			_, _ = w.Write([]byte(`{}`))
		}))
		t.Cleanup(server.Close)

		source := sources.NewHTTPSource[character](&sources.HTTPSourceConfig{UserAgent: "go-swr-test"}, zerolog.Nop())
		_, err := source.Fetch(ctx, server.URL)

		require.NoError(t, err)
		assert.Equal(t, "go-swr-test", seenAgent)
	})
}

func TestHTTPSource_AsCacheFetcher(t *testing.T) {
	// Arrange: the source feeding a real cache, counting server hits.
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte(`{"id": 2, "name": "Morty"}`))
	}))
	t.Cleanup(server.Close)

	source := sources.NewHTTPSource[character](nil, zerolog.Nop())
	c, err := swr.New[character](nil, zerolog.Nop())
	require.NoError(t, err)

	// Act
	got, err := c.Request(context.Background(), server.URL+"/characters/2", source.Fetcher())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, character{ID: 2, Name: "Morty"}, got)
	assert.Equal(t, 1, hits)

	entry, ok := c.Peek(server.URL + "/characters/2")
	require.True(t, ok)
	assert.Equal(t, "Morty", entry.Data.Name)
}
