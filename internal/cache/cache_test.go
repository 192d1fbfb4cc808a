// file: internal/cache/cache_test.go
// version: 1.1.0
// guid: b2c3d4e5-f6a7-8b9c-0d1e-2f3a4b5c6d7e

package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache[T any](ttl time.Duration) (*Cache[T], *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New[T](ttl)
	c.now = clock.now
	return c, clock
}

func TestGetSet(t *testing.T) {
	c, _ := newTestCache[string](time.Minute)
	c.Set("RJ000001", "Rainy Night")
	v, ok := c.Get("RJ000001")
	assert.True(t, ok)
	assert.Equal(t, "Rainy Night", v)
}

func TestExpiry(t *testing.T) {
	c, clock := newTestCache[int](time.Minute)
	c.Set("k", 42)
	clock.advance(2 * time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestZeroTTLDisablesCaching(t *testing.T) {
	c := New[int](0)
	c.Set("k", 1)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestGetOrLoad(t *testing.T) {
	c, _ := newTestCache[string](time.Minute)
	calls := 0
	load := func() (string, error) {
		calls++
		return "loaded", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("k", load)
		require.NoError(t, err)
		assert.Equal(t, "loaded", v)
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := c.GetOrLoad("bad", func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get("bad")
	assert.False(t, ok, "errors are not cached")
}

func TestInvalidateAndPurge(t *testing.T) {
	c, clock := newTestCache[string](time.Minute)
	c.Set("a", "1")
	c.SetWithTTL("b", "2", time.Hour)
	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Set("c", "3")
	clock.advance(30 * time.Minute)
	assert.Equal(t, 1, c.Purge())
	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", v)
}
