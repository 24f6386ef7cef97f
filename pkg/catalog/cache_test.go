package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
}

func newMemCache() *memCache {
	return &memCache{
		entries: map[string][]byte{},
		ttls:    map[string]time.Duration{},
	}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return b, nil
}

func (m *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingLister struct {
	calls int
	items []Item
	err   error
}

func (l *countingLister) List(context.Context, Query) ([]Item, error) {
	l.calls++
	return l.items, l.err
}

func TestCachedListerHit(t *testing.T) {
	next := &countingLister{items: []Item{{ID: "1", Title: "a", Poster: "p", Rate: "9.0"}}}
	cache := newMemCache()
	l := NewCachedLister(next, cache, time.Hour)
	q := Query{Type: "movie", Tag: "热门", PageSize: 16}

	first, err := l.List(context.Background(), q)
	require.NoError(t, err)
	second, err := l.List(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Hour, cache.ttls[q.CacheKey()])
}

func TestCachedListerDoesNotCacheFailures(t *testing.T) {
	next := &countingLister{err: ErrUpstreamTimeout}
	cache := newMemCache()
	l := NewCachedLister(next, cache, time.Hour)
	q := Query{Type: "movie", Tag: "热门", PageSize: 16}

	_, err := l.List(context.Background(), q)
	assert.ErrorIs(t, err, ErrUpstreamTimeout)
	_, err = l.List(context.Background(), q)
	assert.ErrorIs(t, err, ErrUpstreamTimeout)

	assert.Equal(t, 2, next.calls)
	assert.Empty(t, cache.entries)
}

func TestCachedListerCacheFailureFallsThrough(t *testing.T) {
	next := &countingLister{items: []Item{{ID: "2"}}}
	cache := newMemCache()
	cache.getErr = errors.New("connection refused")
	l := NewCachedLister(next, cache, time.Minute)

	items, err := l.List(context.Background(), Query{Type: "tv", Tag: "美剧", PageSize: 16})
	require.NoError(t, err)
	assert.Equal(t, []Item{{ID: "2"}}, items)
	assert.Equal(t, 1, next.calls)
}

func TestCachedListerUnreadableEntry(t *testing.T) {
	next := &countingLister{items: []Item{{ID: "3"}}}
	cache := newMemCache()
	q := Query{Type: "tv", Tag: "美剧", PageSize: 16}
	cache.entries[q.CacheKey()] = []byte("not json")
	l := NewCachedLister(next, cache, time.Minute)

	items, err := l.List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []Item{{ID: "3"}}, items)
	assert.Equal(t, 1, next.calls)
}
