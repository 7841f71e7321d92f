// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used (LRU) cache
whose entries carry an expiry time.

Keys are strings. The cache evicts the least recently used entry when it reaches capacity,
and drops an entry on lookup once its expiry has passed.
*/
package lrucache

import (
	"container/list"
	"errors"
	"sync"
	"time"
)

var ErrInvalidSize = errors.New("must provide a positive size")

// Cache is a fixed-capacity, least-recently-used cache that is safe for concurrent use.
// Instances must be constructed with [New]; the zero value is not ready for use.
type Cache[V any] struct {
	size      int                      // Maximum capacity of the cache (number of entries)
	evictList *list.List               // Front is the most recently used entry
	items     map[string]*list.Element // Maps keys to their linked-list elements
	lock      sync.Mutex
	timeNow   func() time.Time
}

type cacheEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// New creates a new cache with the specified maximum size.
//
// It returns an error if size is not a positive integer.
func New[V any](size int) (*Cache[V], error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	return &Cache[V]{
		size:      size,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
		timeNow:   time.Now,
	}, nil
}

// MustNew is like [New] but panics if size is not positive.
func MustNew[V any](size int) *Cache[V] {
	c, err := New[V](size)
	if err != nil {
		panic(err)
	}

	return c
}

// Add adds or updates the value for key until expiresAt.
//
// If the key exists, it becomes the most recently used.
// If the cache is at capacity, the least recently used item is evicted.
// Add reports whether an eviction occurred.
func (c *Cache[V]) Add(key string, value V, expiresAt time.Time) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)

		cacheEnt := ent.Value.(*cacheEntry[V]) //nolint:forcetypeassert
		cacheEnt.value = value
		cacheEnt.expiresAt = expiresAt

		return false
	}

	c.items[key] = c.evictList.PushFront(&cacheEntry[V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})

	evicted := c.evictList.Len() > c.size
	if evicted {
		c.removeOldest()
	}

	return evicted
}

// Get retrieves the value for key and marks it as most recently used.
//
// The second result reports whether an unexpired entry was found.
// An expired entry is removed.
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.lock.Lock()
	defer c.lock.Unlock()

	ent, ok := c.items[key]
	if !ok {
		return zero, false
	}

	cacheEnt := ent.Value.(*cacheEntry[V]) //nolint:forcetypeassert
	if !c.timeNow().Before(cacheEnt.expiresAt) {
		c.removeElement(ent)

		return zero, false
	}

	c.evictList.MoveToFront(ent)

	return cacheEnt.value, true
}

// Remove deletes the entry associated with key from the cache.
//
// Remove reports whether the key was present and removed.
func (c *Cache[V]) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)

		return true
	}

	return false
}

// Keys returns all keys in the cache, from the oldest to the newest.
func (c *Cache[V]) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.items))

	for ent := c.evictList.Back(); ent != nil; ent = ent.Prev() {
		keys = append(keys, ent.Value.(*cacheEntry[V]).key) //nolint:forcetypeassert
	}

	return keys
}

// Len returns the current number of items in the cache, expired or not.
func (c *Cache[V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.evictList.Len()
}

func (c *Cache[V]) removeOldest() {
	if ent := c.evictList.Back(); ent != nil {
		c.removeElement(ent)
	}
}

func (c *Cache[V]) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	delete(c.items, e.Value.(*cacheEntry[V]).key) //nolint:forcetypeassert
}
