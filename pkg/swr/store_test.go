package swr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PeekMiss(t *testing.T) {
	st := newStore(newRegistry[int]())

	entry, ok := st.peek("absent")

	assert.False(t, ok)
	assert.Equal(t, "absent", entry.Key)
	assert.False(t, entry.HasData)
}

func TestStore_UpdateCreatesAndNotifies(t *testing.T) {
	// Arrange
	reg := newRegistry[int]()
	st := newStore(reg)
	var notified []Entry[int]
	reg.subscribe("k", func(e Entry[int]) { notified = append(notified, e) })

	// Act
	snapshot := st.update("k", func(e *Entry[int]) {
		e.Data = 42
		e.HasData = true
	})

	// Assert: the notification carries the completed mutation.
	assert.Equal(t, 42, snapshot.Data)
	require.Len(t, notified, 1)
	assert.Equal(t, 42, notified[0].Data)
	assert.True(t, notified[0].HasData)
	assert.Equal(t, "k", notified[0].Key)
}

func TestStore_UpdateSilentSkipsNotification(t *testing.T) {
	reg := newRegistry[int]()
	st := newStore(reg)
	var notifications int
	reg.subscribe("k", func(Entry[int]) { notifications++ })

	st.updateSilent("k", func(e *Entry[int]) { e.IsValidating = true })

	assert.Equal(t, 0, notifications)
	entry, ok := st.peek("k")
	require.True(t, ok)
	assert.True(t, entry.IsValidating)
}

func TestStore_FetcherRecording(t *testing.T) {
	st := newStore(newRegistry[int]())

	_, ok := st.fetcherFor("k")
	assert.False(t, ok)

	st.setFetcher("k", func(ctx context.Context, key string) (int, error) { return 7, nil })
	fetch, ok := st.fetcherFor("k")
	require.True(t, ok)
	v, err := fetch(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestStore_SweepEvictsOnlyIdleEntries(t *testing.T) {
	// Arrange: one idle entry past its TTL, one active, one mid-fetch.
	st := newStore(newRegistry[int]())
	st.update("idle", func(e *Entry[int]) { e.Data = 1; e.HasData = true })
	st.update("active", func(e *Entry[int]) { e.Data = 2; e.HasData = true })
	st.update("validating", func(e *Entry[int]) { e.IsValidating = true })

	st.markActive("active")
	st.markIdle("idle")
	st.markIdle("validating")

	// Act
	evicted := st.sweep(time.Now().Add(time.Hour), time.Minute)

	// Assert
	assert.ElementsMatch(t, []string{"idle"}, evicted)
	_, ok := st.peek("idle")
	assert.False(t, ok)
	_, ok = st.peek("active")
	assert.True(t, ok, "entries with subscribers must never be swept")
	_, ok = st.peek("validating")
	assert.True(t, ok, "entries with a fetch in flight must never be swept")
	assert.Equal(t, 2, st.len())
}

func TestStore_SweepRespectsTTL(t *testing.T) {
	st := newStore(newRegistry[int]())
	st.update("k", func(e *Entry[int]) { e.Data = 1; e.HasData = true })
	st.markIdle("k")

	evicted := st.sweep(time.Now(), time.Hour)

	assert.Empty(t, evicted, "an idle entry inside its TTL must be retained")
	assert.Equal(t, 1, st.len())
}
