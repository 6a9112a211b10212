// Package cache is a small in-process TTL cache on top of an LRU,
// used as a read-through layer in front of durable state.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry[V any] struct {
	data      V
	expiresAt time.Time
}

type Cache[V any] struct {
	lru *lru.Cache[string, *entry[V]]
}

func New[V any](size int) (*Cache[V], error) {
	l, err := lru.New[string, *entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lru: l}, nil
}

func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok || time.Now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.data, true
}

func (c *Cache[V]) Set(key string, val V, ttl time.Duration) {
	c.lru.Add(key, &entry[V]{
		data:      val,
		expiresAt: time.Now().Add(ttl),
	})
}
