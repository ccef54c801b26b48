package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetWithinTTL(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c := New(time.Minute, func() time.Time { return now })

	c.Set("k", 42)

	now = now.Add(59 * time.Second)
	value, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, value)
}

func TestGetAfterTTL(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c := New(time.Minute, func() time.Time { return now })

	c.Set("k", 42)

	// Expiry is inclusive: the entry is gone at exactly ttl.
	now = now.Add(time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestGetMissingKey(t *testing.T) {
	c := New(time.Minute, nil)
	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestSetResetsTTL(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c := New(time.Minute, func() time.Time { return now })

	c.Set("k", 1)
	now = now.Add(40 * time.Second)
	c.Set("k", 2)
	now = now.Add(40 * time.Second)

	value, ok := c.Get("k")
	assert.True(t, ok, "second Set restarts the clock")
	assert.Equal(t, 2, value)
}

func TestExpireDropsEarly(t *testing.T) {
	c := New(time.Hour, nil)
	c.Set("k", 1)
	c.Expire("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}
