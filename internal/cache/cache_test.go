package cache

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL_SetGet(t *testing.T) {
	c := NewTTL(time.Hour, nil)

	c.Set("k", 42, 0)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestTTL_MissingKey(t *testing.T) {
	c := NewTTL(time.Hour, nil)

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestTTL_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewTTL(time.Hour, clock)

	c.Set("k", "v", time.Minute)

	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(time.Minute + time.Second)

	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "expired entry dropped on access")
}

func TestTTL_DefaultTTL(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewTTL(time.Hour, clock)

	c.Set("k", "v", 0)

	clock.Advance(59 * time.Minute)
	_, ok := c.Get("k")
	assert.True(t, ok)

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestTTL_Purge(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := NewTTL(time.Hour, clock)

	c.Set("short", 1, time.Minute)
	c.Set("long", 2, 2*time.Hour)

	clock.Advance(30 * time.Minute)

	assert.Equal(t, 1, c.Purge())
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("long")
	assert.True(t, ok)
}

func TestTTL_Overwrite(t *testing.T) {
	c := NewTTL(time.Hour, nil)

	c.Set("k", 1, 0)
	c.Set("k", 2, 0)

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestNop_StoresNothing(t *testing.T) {
	var c Nop

	c.Set("k", 1, time.Hour)

	_, ok := c.Get("k")
	assert.False(t, ok)
}
