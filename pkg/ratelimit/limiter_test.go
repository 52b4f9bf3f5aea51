package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	l := NewPerMinute(1, 2)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))

	assert.True(t, l.Allow("bob"))
}

func TestKeyedLimiterRefillsAndCleansUp(t *testing.T) {
	l := NewPerMinute(60, 1)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("alice"))

	now = now.Add(time.Hour)
	l.Cleanup()
	assert.Empty(t, l.visitors)
}
