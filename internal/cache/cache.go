// Package cache holds the short-lived caches in front of the admin listing.
// Values are opaque bytes so the in-memory and Redis stores are interchangeable.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte)
	Delete(ctx context.Context, key string)
	DeletePrefix(ctx context.Context, prefix string)

	// Version reads a counter that never expires; a missing counter is 0.
	// ok is false when the store cannot answer.
	Version(ctx context.Context, key string) (v int64, ok bool)
	// Bump increments the counter and reports whether it was stored.
	Bump(ctx context.Context, key string) bool
}

// Cache is the in-process Store. Its counters are per process, so it only
// stays coherent with a single API replica.
type Cache struct {
	mu       sync.RWMutex
	ttl      time.Duration
	m        map[string]entry
	versions map[string]int64
	now      func() time.Time
}
type entry struct {
	val []byte
	exp time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:      ttl,
		m:        make(map[string]entry),
		versions: make(map[string]int64),
		now:      time.Now,
	}
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, bool) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if now.After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Cache) Set(_ context.Context, key string, val []byte) {
	c.mu.Lock()
	c.m[key] = entry{val: val, exp: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache) DeletePrefix(_ context.Context, prefix string) {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) Version(_ context.Context, key string) (int64, bool) {
	c.mu.RLock()
	v := c.versions[key]
	c.mu.RUnlock()
	return v, true
}

func (c *Cache) Bump(_ context.Context, key string) bool {
	c.mu.Lock()
	c.versions[key]++
	c.mu.Unlock()
	return true
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.m = make(map[string]entry)
	c.mu.Unlock()
}
