package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rumba/internal/log"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // a is now most recent
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCacheTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 4, 12, 22, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute, WithClock(clock.now))
	c.Set("k", "v")

	clock.t = clock.t.Add(61 * time.Second)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestLRUCacheSlidingExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 4, 12, 22, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](10, time.Minute, WithClock(clock.now), WithSlidingExpiry())
	c.Set("k", "v")

	for i := 0; i < 3; i++ {
		clock.t = clock.t.Add(45 * time.Second)
		_, ok := c.Get("k")
		require.True(t, ok, "hit %d should refresh the deadline", i)
	}
	clock.t = clock.t.Add(2 * time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestManagerCleanAll(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 4, 12, 22, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](10, time.Minute, WithClock(clock.now))
	c.Set("a", 1)
	c.Set("b", 2)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("c", 3)
	clock.t = clock.t.Add(45 * time.Second)

	m := NewManager(log.NewDiscard())
	m.Register("test", c)
	assert.Equal(t, 2, m.CleanAll())
	assert.Equal(t, 1, c.Size())

	m.Stop()
	m.Stop()
}
