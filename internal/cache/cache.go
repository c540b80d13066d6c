// Package cache implements the process-local read-through cache that sits
// between the services and the persistent store. It is strictly a performance
// overlay: entries expire, get invalidated on writes, and are never consulted
// for quota decisions.
package cache

import (
	"context"
	"regexp"
	"sync"
	"time"
)

// DefaultTTL applies when a caller does not specify an expiration.
const DefaultTTL = 5 * time.Minute

const janitorInterval = time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// Cache is a concurrency-safe key/value store with per-entry absolute expiry.
// Expired entries are dropped lazily on read and swept by a background
// janitor so abandoned keys do not accumulate.
type Cache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	defaultTTL time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// New builds a cache with the given default TTL (DefaultTTL when zero) and
// starts the janitor. Callers own Close.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	c := &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Get returns the value stored under key, or ok=false on a miss or an
// expired entry.
func (c *Cache) Get(key Key) (any, bool) {
	k := key.String()
	now := time.Now()

	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if e.expired(now) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have renewed it.
		if cur, still := c.entries[k]; still && cur.expired(now) {
			delete(c.entries, k)
		}
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A non-positive ttl falls back to the default.
func (c *Cache) Set(key Key, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	c.entries[key.String()] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Remove drops the entry for key, if present.
func (c *Cache) Remove(key Key) {
	c.mu.Lock()
	delete(c.entries, key.String())
	c.mu.Unlock()
}

// RemoveKind drops every entry of the given kind. This is the typed bulk
// invalidation used when an underlying entity is mutated.
func (c *Cache) RemoveKind(kind string) int {
	prefix := kind + separator
	removed := 0

	c.mu.Lock()
	for k := range c.entries {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()
	return removed
}

// RemoveByPattern drops every entry whose rendered key matches the regular
// expression. Prefer RemoveKind; this exists for callers that need to sweep
// across kinds in one pass.
func (c *Cache) RemoveByPattern(pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, err
	}
	removed := 0

	c.mu.Lock()
	for k := range c.entries {
		if re.MatchString(k) {
			delete(c.entries, k)
			removed++
		}
	}
	c.mu.Unlock()
	return removed, nil
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}

// Len reports the number of entries, including not-yet-swept expired ones.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the janitor. The cache remains usable afterwards; entries just
// stop being swept in the background.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.entries {
				if e.expired(now) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// GetOrSet returns the cached value for key, invoking factory to populate the
// cache on a miss. Concurrent misses for the same key may each invoke the
// factory; callers needing at-most-once semantics must coordinate themselves.
// Factory errors are returned as-is and nothing is cached.
func GetOrSet[T any](ctx context.Context, c *Cache, key Key, ttl time.Duration, factory func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}

	value, err := factory(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	c.Set(key, value, ttl)
	return value, nil
}
