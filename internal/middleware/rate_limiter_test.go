package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowLimita(t *testing.T) {
	sw := newSlidingWindow(3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		ok, _ := sw.allow("10.0.0.1", now)
		assert.True(t, ok)
	}
	ok, fin := sw.allow("10.0.0.1", now)
	assert.False(t, ok)
	assert.Equal(t, now.Add(time.Minute), fin)

	// Another IP has its own window.
	ok, _ = sw.allow("10.0.0.2", now)
	assert.True(t, ok)
}

func TestSlidingWindowReiniciaAlVencer(t *testing.T) {
	sw := newSlidingWindow(1, time.Minute)
	now := time.Now()

	ok, _ := sw.allow("10.0.0.1", now)
	assert.True(t, ok)
	ok, _ = sw.allow("10.0.0.1", now)
	assert.False(t, ok)

	ok, _ = sw.allow("10.0.0.1", now.Add(2*time.Minute))
	assert.True(t, ok)
}

func TestSlidingWindowPurgaEnLinea(t *testing.T) {
	sw := newSlidingWindow(5, time.Minute)
	now := time.Now()

	sw.allow("10.0.0.1", now)
	sw.allow("10.0.0.2", now)
	assert.Len(t, sw.entries, 2)

	// A hit past the purge interval sweeps the expired entries on the
	// caller's goroutine; no background loop is involved.
	luego := now.Add(purgeInterval + time.Second)
	sw.allow("10.0.0.3", luego)
	assert.Len(t, sw.entries, 1)
	assert.Contains(t, sw.entries, "10.0.0.3")
	assert.Equal(t, luego, sw.lastPurge)
}
