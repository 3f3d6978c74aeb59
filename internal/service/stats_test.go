package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/tinkerer-vote/internal/model"
)

func TestStatsSnapshot_NoCache(t *testing.T) {
	store := newFakeStore()
	store.addUser("1", "a", false)
	store.addUser("2", "b", false)

	got, err := NewStatsService(store, nil, discardLogger()).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Members: 2}, got)
}

func TestStatsSnapshot_CacheAside(t *testing.T) {
	store := newFakeStore()
	store.addUser("1", "a", false)
	cache := &fakeStatsCache{}
	svc := NewStatsService(store, cache, discardLogger())
	ctx := context.Background()

	first, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, store.statsHits)
	assert.Equal(t, 1, cache.sets)

	// A new member is not visible until the cached snapshot expires.
	store.addUser("2", "b", false)
	second, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.statsHits)
}

func TestStatsSnapshot_CacheFailuresFallBackToStore(t *testing.T) {
	store := newFakeStore()
	store.addUser("1", "a", false)
	cache := &fakeStatsCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}

	got, err := NewStatsService(store, cache, discardLogger()).Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Stats{Members: 1}, got)
	assert.Equal(t, 1, store.statsHits)
}

func TestStatsSnapshot_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.statsErr = errors.New("no connection")
	cache := &fakeStatsCache{}

	_, err := NewStatsService(store, cache, discardLogger()).Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, cache.sets, "failures are not cached")
}
