package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache кэш в памяти процесса с TTL и сбросом по префиксу.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	now   func() time.Time
}

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache создаёт кэш. Просроченные записи чистятся каждые sweep до отмены ctx.
func NewMemoryCache(ctx context.Context, sweep time.Duration) *MemoryCache {
	c := &MemoryCache{
		items: make(map[string]*cacheEntry),
		now:   time.Now,
	}
	if sweep > 0 {
		go c.cleanup(ctx, sweep)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.items[key]
	if !ok || !c.now().Before(entry.expiresAt) {
		// Просроченное удалит cleanup.
		return nil, false, nil
	}
	return entry.data, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = &cacheEntry{data: value, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) cleanup(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.items {
		if !now.Before(entry.expiresAt) {
			delete(c.items, key)
		}
	}
}
