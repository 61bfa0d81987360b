// Package cache provides a general-purpose in-memory key/value store with
// LRU capacity eviction, per-entry TTL expiry, pattern-based invalidation,
// and hit/miss accounting. It is a standalone component; the pipeline is
// one of its clients, not its owner.
package cache

import (
	"container/list"
	"regexp"
	"sync"
	"time"
)

// DefaultMaxSize is the capacity used when none is configured.
const DefaultMaxSize = 1000

// DefaultTTL is the entry lifetime used when Set is called without one.
const DefaultTTL = 5 * time.Minute

// entry is a single cached value with its expiry deadline.
type entry struct {
	key   string
	value interface{}
	// expiresAt is the zero time for entries that never expire.
	expiresAt time.Time
}

// Cache is a thread-safe LRU cache with lazy TTL expiry.
//
// Recency is tracked with a doubly-linked list plus a hash map so the
// least-recently-used entry is evictable in O(1). Values are stored by
// reference; the cache never clones.
type Cache struct {
	mu         sync.Mutex
	maxSize    int
	defaultTTL time.Duration
	// order holds *entry values, front = most recently used.
	order *list.List
	// items maps key to its element in order.
	items map[string]*list.Element

	hits   int64
	misses int64

	// now is replaceable in tests to exercise expiry without sleeping.
	now func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the cache's time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a Cache with the given capacity and default TTL.
// A maxSize <= 0 falls back to DefaultMaxSize; a defaultTTL <= 0 falls
// back to DefaultTTL.
func New(maxSize int, defaultTTL time.Duration, opts ...Option) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	c := &Cache{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		order:      list.New(),
		items:      make(map[string]*list.Element),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Set inserts or overwrites the value for key. An optional ttl overrides
// the default; a ttl of zero or less means the entry expires on its next
// read. Overwriting an existing key refreshes its recency and TTL without
// consuming capacity. Inserting a new key at capacity evicts the single
// least-recently-used entry first.
func (c *Cache) Set(key string, value interface{}, ttl ...time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	effective := c.defaultTTL
	if len(ttl) > 0 {
		effective = ttl[0]
	}
	expiresAt := c.now().Add(effective)

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry)
		ent.value = value
		ent.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.maxSize {
		c.evictOldest()
	}

	elem := c.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem
}

// Get returns the value for key and whether it was present and unexpired.
// A hit refreshes the entry's recency. An expired entry is removed and
// counted as a miss; there is no background sweep.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	ent := elem.Value.(*entry)
	if !c.now().Before(ent.expiresAt) {
		c.removeElement(elem)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(elem)
	c.hits++
	return ent.value, true
}

// Invalidate removes the entry for key. No-op if the key is absent.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// InvalidatePattern removes every entry whose key matches the given
// regular expression. The pattern is compiled at the call boundary and a
// compile error is returned to the caller rather than panicking.
// Matching is evaluated once over the current key set.
func (c *Cache) InvalidatePattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, elem := range c.items {
		if re.MatchString(key) {
			c.removeElement(elem)
		}
	}
	return nil
}

// Clear removes all entries and resets the hit/miss counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)
	c.hits = 0
	c.misses = 0
}

// Len returns the current number of entries, including any that have
// expired but not yet been read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// evictOldest removes the least-recently-used entry. Caller holds mu.
func (c *Cache) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeElement(elem)
	}
}

// removeElement unlinks an entry from both structures. Caller holds mu.
func (c *Cache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry).key)
}
