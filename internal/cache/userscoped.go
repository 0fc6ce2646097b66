package cache

import (
	"strconv"
	"sync"
	"time"
)

// UserScoped wraps an LRUCache with a per-user version counter so one
// user's mutations invalidate only that user's entries. Invalidation
// bumps the version, which orphans the old keys; the orphans age out
// through TTL expiry and LRU eviction.
type UserScoped[T any] struct {
	lru *LRUCache[T]

	mu       sync.Mutex
	versions map[int64]uint64
}

// NewUserScoped creates a user-scoped cache with the given capacity and
// entry TTL.
func NewUserScoped[T any](maxSize int, ttl time.Duration) *UserScoped[T] {
	return &UserScoped[T]{
		lru:      NewLRUCache[T](maxSize, ttl),
		versions: make(map[int64]uint64),
	}
}

func (c *UserScoped[T]) key(userID int64, suffix string) string {
	c.mu.Lock()
	v := c.versions[userID]
	c.mu.Unlock()
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatUint(v, 10) + ":" + suffix
}

// Get retrieves the value stored for a user under the given suffix.
func (c *UserScoped[T]) Get(userID int64, suffix string) (T, bool) {
	return c.lru.Get(c.key(userID, suffix))
}

// Set stores a value for a user under the given suffix.
func (c *UserScoped[T]) Set(userID int64, suffix string, data T) {
	c.lru.Set(c.key(userID, suffix), data)
}

// Invalidate drops every cached entry belonging to the user.
func (c *UserScoped[T]) Invalidate(userID int64) {
	c.mu.Lock()
	c.versions[userID]++
	c.mu.Unlock()
}

// CleanExpired removes expired entries and returns how many were
// dropped.
func (c *UserScoped[T]) CleanExpired() int {
	return c.lru.CleanExpired()
}

// Size returns the current number of entries, including orphans not
// yet evicted.
func (c *UserScoped[T]) Size() int {
	return c.lru.Size()
}
