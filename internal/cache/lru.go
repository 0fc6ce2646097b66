// Package cache provides the in-memory caches backing read-heavy
// endpoints. Entries carry a TTL and the cache evicts least recently
// used entries under size pressure.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// entry is one cached value together with its key (needed for map
// removal when evicting through the list) and expiry deadline.
type entry[T any] struct {
	key      string
	val      T
	deadline time.Time
}

func (e *entry[T]) expired(now time.Time) bool {
	return now.After(e.deadline)
}

// LRUCache is a bounded TTL cache safe for concurrent use. The list
// front is the most recently used entry; eviction takes from the back.
type LRUCache[T any] struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	order *list.List
	index map[string]*list.Element
}

// NewLRUCache creates a cache holding at most cap entries, each valid
// for ttl after its last Set.
func NewLRUCache[T any](cap int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		cap:   cap,
		ttl:   ttl,
		order: list.New(),
		index: make(map[string]*list.Element),
	}
}

// Get returns the cached value for key. An expired entry is removed on
// the spot and reported as a miss.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	el, ok := c.index[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[T])
	if e.expired(time.Now()) {
		c.drop(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.val, true
}

// Set stores val under key, refreshing the TTL. When the cache is
// full the least recently used entry makes room.
func (c *LRUCache[T]) Set(key string, val T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry[T]{key: key, val: val, deadline: time.Now().Add(c.ttl)}

	if el, ok := c.index[key]; ok {
		el.Value = e
		c.order.MoveToFront(el)
		return
	}

	c.index[key] = c.order.PushFront(e)
	for c.order.Len() > c.cap {
		c.drop(c.order.Back())
	}
}

// Delete removes key if present.
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.drop(el)
	}
}

// CleanExpired sweeps out every expired entry and returns how many
// were removed.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*entry[T]).expired(now) {
			c.drop(el)
			removed++
		}
		el = next
	}
	return removed
}

// Size returns the number of entries currently held, expired or not.
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// drop removes el from both the list and the index. Callers hold the
// lock.
func (c *LRUCache[T]) drop(el *list.Element) {
	delete(c.index, el.Value.(*entry[T]).key)
	c.order.Remove(el)
}
