package main

import (
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/zeebo/xxh3"
)

// seenCache remembers layouts already known to be in the store so repeated
// valleys skip the database lookup. A hash collision only costs a store lookup:
// entries hold the full layout and Contains compares it.
type seenCache struct {
	m     *xsync.Map[uint64, Layout]
	limit int
}

func newSeenCache(limit int) *seenCache {
	return &seenCache{m: xsync.NewMap[uint64, Layout](), limit: limit}
}

func layoutKey(l *Layout) uint64 {
	return xxh3.Hash(l[:])
}

// Contains reports whether l was added before.
func (c *seenCache) Contains(l Layout) bool {
	if c == nil || c.limit <= 0 {
		return false
	}
	got, ok := c.m.Load(layoutKey(&l))
	return ok && got == l
}

// Add records l unless the cache is full.
func (c *seenCache) Add(l Layout) {
	if c == nil || c.limit <= 0 || c.m.Size() >= c.limit {
		return
	}
	c.m.LoadOrStore(layoutKey(&l), l)
}

// Len returns the number of cached layouts.
func (c *seenCache) Len() int {
	if c == nil {
		return 0
	}
	return c.m.Size()
}
