package memo

import (
	"sync"
	"time"

	"morelikethis/internal/metrics"
)

// DefaultTTL is how long an entry stays fresh unless WithTTL says otherwise.
const DefaultTTL = time.Hour

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Cache is a string-keyed, mutex-guarded memo table with a fixed freshness
// window. Entries are never evicted by size; stale entries are dropped when
// read.
type Cache[V any] struct {
	name    string
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]entry[V]
}

// Option configures a Cache.
type Option func(*settings)

type settings struct {
	ttl time.Duration
	now func() time.Time
}

// WithTTL sets the freshness window. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, letting tests move time forward.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a named cache. The name labels the cache metrics.
func New[V any](name string, opts ...Option) *Cache[V] {
	s := settings{ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	metrics.CacheEntries.WithLabelValues(name).Set(0)
	return &Cache[V]{
		name:    name,
		ttl:     s.ttl,
		now:     s.now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the value stored under key while it is fresh. An entry is
// stale once ttl has elapsed since it was stored.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		metrics.CacheRequests.WithLabelValues(c.name, "miss").Inc()
		return zero, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		c.mu.Lock()
		if current, ok := c.entries[key]; ok && current.createdAt.Equal(e.createdAt) {
			delete(c.entries, key)
		}
		size := len(c.entries)
		c.mu.Unlock()
		metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
		metrics.CacheRequests.WithLabelValues(c.name, "stale").Inc()
		return zero, false
	}
	metrics.CacheRequests.WithLabelValues(c.name, "hit").Inc()
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, createdAt: c.now()}
	size := len(c.entries)
	c.mu.Unlock()
	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
}

// Len reports the number of stored entries, stale ones included.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// TTL returns the freshness window.
func (c *Cache[V]) TTL() time.Duration {
	return c.ttl
}
