// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/refsearch/pkg/types"
)

func newTestCache(t *testing.T, cfg types.CacheConfig) *Cache {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetOrFillMissThenHit(t *testing.T) {
	c := newTestCache(t, types.CacheConfig{})
	ctx := context.Background()

	var fills atomic.Int32
	fill := func(ctx context.Context) ([]byte, error) {
		fills.Add(1)
		return []byte(`{"x":1}`), nil
	}

	payload, hit, err := c.GetOrFill(ctx, "k", fill)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte(`{"x":1}`), payload)

	payload, hit, err = c.GetOrFill(ctx, "k", fill)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte(`{"x":1}`), payload)
	assert.Equal(t, int32(1), fills.Load())
}

func TestGetOrFillErrorNotCached(t *testing.T) {
	c := newTestCache(t, types.CacheConfig{})
	ctx := context.Background()

	boom := errors.New("upstream down")
	_, _, err := c.GetOrFill(ctx, "k", func(ctx context.Context) ([]byte, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len(ctx))

	// A later fill succeeds and stores.
	payload, _, err := c.GetOrFill(ctx, "k", func(ctx context.Context) ([]byte, error) {
		return []byte("ok"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), payload)
	assert.Equal(t, 1, c.Len(ctx))
}

func TestExpiredEntryRefills(t *testing.T) {
	c := newTestCache(t, types.CacheConfig{TTL: time.Minute})
	ctx := context.Background()

	now := time.Now()
	c.now = func() time.Time { return now }

	var fills atomic.Int32
	fill := func(ctx context.Context) ([]byte, error) {
		fills.Add(1)
		return []byte(fmt.Sprintf("v%d", fills.Load())), nil
	}

	payload, _, err := c.GetOrFill(ctx, "k", fill)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), payload)

	// Advance past the TTL; the stale entry must not be served.
	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	payload, hit, err := c.GetOrFill(ctx, "k", fill)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []byte("v2"), payload)
}

func TestMaxEntriesEviction(t *testing.T) {
	c := newTestCache(t, types.CacheConfig{MaxEntries: 3})
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		// Later entries expire later, so the earliest are evicted first.
		tick := base.Add(time.Duration(i) * time.Second)
		c.now = func() time.Time { return tick }
		key := fmt.Sprintf("k%d", i)
		_, _, err := c.GetOrFill(ctx, key, func(ctx context.Context) ([]byte, error) {
			return []byte(key), nil
		})
		require.NoError(t, err)
	}

	assert.Equal(t, 3, c.Len(ctx))

	// The newest key is still cached.
	c.now = func() time.Time { return base.Add(5 * time.Second) }
	_, hit, err := c.GetOrFill(ctx, "k4", func(ctx context.Context) ([]byte, error) {
		return []byte("refilled"), nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestConcurrentRequestsCoalesce(t *testing.T) {
	c := newTestCache(t, types.CacheConfig{})
	ctx := context.Background()

	var fills atomic.Int32
	release := make(chan struct{})
	fill := func(ctx context.Context) ([]byte, error) {
		fills.Add(1)
		<-release
		return []byte("shared"), nil
	}

	const goroutines = 8
	var wg sync.WaitGroup
	results := make([][]byte, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload, _, err := c.GetOrFill(ctx, "k", fill)
			assert.NoError(t, err)
			results[i] = payload
		}(i)
	}

	// Give the goroutines a moment to pile onto the singleflight group.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), fills.Load(), "concurrent identical requests should trigger one fill")
	for _, r := range results {
		assert.Equal(t, []byte("shared"), r)
	}
}

func TestCachesAreIsolated(t *testing.T) {
	a := newTestCache(t, types.CacheConfig{})
	b := newTestCache(t, types.CacheConfig{})
	ctx := context.Background()

	_, _, err := a.GetOrFill(ctx, "k", func(ctx context.Context) ([]byte, error) {
		return []byte("a"), nil
	})
	require.NoError(t, err)

	assert.Equal(t, 1, a.Len(ctx))
	assert.Equal(t, 0, b.Len(ctx))
}

func TestKey(t *testing.T) {
	k1 := Key(types.SearchQuery{Text: "  Attention   IS all you need "}, []types.ProviderName{types.ProviderDBLP, types.ProviderArxiv}, 10)
	k2 := Key(types.SearchQuery{Text: "attention is all you need"}, []types.ProviderName{types.ProviderArxiv, types.ProviderDBLP}, 10)
	assert.Equal(t, k1, k2, "whitespace, case, and provider order must not matter")

	k3 := Key(types.SearchQuery{Text: "attention is all you need"}, []types.ProviderName{types.ProviderArxiv, types.ProviderDBLP}, 20)
	assert.NotEqual(t, k1, k3, "the result bound is part of the key")

	k4 := Key(types.SearchQuery{Text: "attention is all you need", Year: 2017}, []types.ProviderName{types.ProviderArxiv, types.ProviderDBLP}, 10)
	assert.NotEqual(t, k1, k4, "the year filter is part of the key")

	k5 := Key(types.SearchQuery{Text: "attention is all you need", Author: "Vaswani"}, []types.ProviderName{types.ProviderArxiv, types.ProviderDBLP}, 10)
	assert.NotEqual(t, k1, k5, "the author filter is part of the key")

	k6 := Key(types.SearchQuery{Text: "attention is all you need", Author: "  vaswani "}, []types.ProviderName{types.ProviderArxiv, types.ProviderDBLP}, 10)
	assert.Equal(t, k5, k6, "author normalization matches query normalization")
}
