package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"storyforge-backend/pkg/cache"
)

type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache implements cache.Cache with JSON values and TTLs
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	now  func() time.Time
}

var _ cache.Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]cacheEntry), now: time.Now}
}

// Advance dời đồng hồ nội bộ để test TTL
func (c *MemoryCache) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	base := c.now()
	c.now = func() time.Time { return base.Add(d) }
}

func (c *MemoryCache) lookup(key string) ([]byte, bool) {
	e, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.data, key)
		return nil, false
	}
	return e.data, true
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.lookup(key)
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{data: raw}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.data[key] = e
	return nil
}

func (c *MemoryCache) Take(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.lookup(key)
	if !ok {
		return cache.ErrCacheMiss
	}
	delete(c.data, key)
	return json.Unmarshal(raw, dest)
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lookup(key)
	return ok, nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }
