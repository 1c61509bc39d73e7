package main

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeenCache(t *testing.T) {
	c := newSeenCache(2)
	a := NaturalLayout()
	b := mustLayout(t, "zyxwvutsrqponmlkjihgfedcba")
	d := mustLayout(t, "qwertyuiopasdfghjklzxcvbnm")

	assert.False(t, c.Contains(a))
	c.Add(a)
	c.Add(a)
	assert.True(t, c.Contains(a))
	assert.Equal(t, 1, c.Len())

	c.Add(b)
	c.Add(d) // full
	assert.True(t, c.Contains(b))
	assert.False(t, c.Contains(d))
	assert.Equal(t, 2, c.Len())
}

func TestSeenCache_Disabled(t *testing.T) {
	var nilCache *seenCache
	nilCache.Add(NaturalLayout())
	assert.False(t, nilCache.Contains(NaturalLayout()))

	off := newSeenCache(0)
	off.Add(NaturalLayout())
	assert.False(t, off.Contains(NaturalLayout()))
	assert.Zero(t, off.Len())
}

// A key collision must not make a different layout look seen.
func TestSeenCache_ComparesLayout(t *testing.T) {
	c := newSeenCache(10)
	a := NaturalLayout()
	b := mustLayout(t, "bacdefghijklmnopqrstuvwxyz")
	c.m.Store(layoutKey(&b), a)
	assert.False(t, c.Contains(b))
}

func TestSeenCache_Concurrent(t *testing.T) {
	c := newSeenCache(1000)
	gen := NewSeededGenerator([32]byte{2})
	layouts := make([]Layout, 200)
	for i := range layouts {
		layouts[i] = gen.Next()
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, l := range layouts {
				c.Add(l)
				_ = c.Contains(l)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, len(layouts), c.Len())
	for _, l := range layouts {
		assert.True(t, c.Contains(l))
	}
}
