package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_TTLAndPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(ctx, 0)
	now := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "feed:a:1", []byte("one"), time.Minute))
	require.NoError(t, c.Set(ctx, "feed:a:2", []byte("two"), time.Hour))
	require.NoError(t, c.Set(ctx, "feed:b:1", []byte("three"), time.Hour))

	v, ok, err := c.Get(ctx, "feed:a:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("one"), v)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, "feed:a:1")
	assert.False(t, ok, "expired entries are not returned")

	c.evictExpired()
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.DeleteByPrefix(ctx, "feed:a:"))
	_, ok, _ = c.Get(ctx, "feed:a:2")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "feed:b:1")
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "feed:b:1"))
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_JanitorStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewMemoryCache(ctx, 10*time.Millisecond)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Millisecond))

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
}
