package material

import (
	"sync"

	"github.com/google/btree"
)

// Disposer is a cached value owning resources that must be released when
// the cache is cleared.
type Disposer interface {
	Dispose()
}

// KeyedCache maps ordered keys to lazily created values. Entries live
// until Clear; there is no individual removal.
//
// KeyedCache is safe for concurrent use and must not be copied after
// creation (has mutex).
type KeyedCache[K any, V Disposer] struct {
	mu   sync.Mutex
	tree *btree.BTreeG[cacheEntry[K, V]]

	hits, misses uint64
}

type cacheEntry[K any, V any] struct {
	key   K
	value V
}

// cacheDegree is the B-tree node degree. The caches hold tens to a few
// hundred entries.
const cacheDegree = 8

// NewKeyedCache creates an empty cache ordered by compare.
func NewKeyedCache[K any, V Disposer](compare func(a, b K) int) *KeyedCache[K, V] {
	less := func(a, b cacheEntry[K, V]) bool { return compare(a.key, b.key) < 0 }
	return &KeyedCache[K, V]{tree: btree.NewG(cacheDegree, less)}
}

// Get returns the value stored for key.
func (c *KeyedCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.tree.Get(cacheEntry[K, V]{key: key})
	return e.value, ok
}

// GetOrCreate returns the value stored for key, creating it with create
// when absent. create runs under the cache lock and is called at most
// once per key until the next Clear.
func (c *KeyedCache[K, V]) GetOrCreate(key K, create func(K) V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	probe := cacheEntry[K, V]{key: key}
	if e, ok := c.tree.Get(probe); ok {
		c.hits++
		return e.value
	}
	c.misses++
	probe.value = create(key)
	c.tree.ReplaceOrInsert(probe)
	return probe.value
}

// Len returns the number of entries.
func (c *KeyedCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Len()
}

// Keys returns the keys in ascending order.
func (c *KeyedCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.tree.Len())
	c.tree.Ascend(func(e cacheEntry[K, V]) bool {
		keys = append(keys, e.key)
		return true
	})
	return keys
}

// Clear disposes every value in key order and empties the cache.
func (c *KeyedCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tree.Ascend(func(e cacheEntry[K, V]) bool {
		e.value.Dispose()
		return true
	})
	c.tree.Clear(false)
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Len          int
	Hits, Misses uint64
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns a snapshot of the counters.
func (c *KeyedCache[K, V]) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Len: c.tree.Len(), Hits: c.hits, Misses: c.misses}
}
