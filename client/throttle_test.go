package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottleSuppressesInsideWindow(t *testing.T) {
	base := time.Now()
	th := NewThrottle(time.Second)

	assert.True(t, th.ShouldApply(base))
	assert.False(t, th.ShouldApply(base.Add(500*time.Millisecond)))
	assert.False(t, th.ShouldApply(base.Add(999*time.Millisecond)))
	assert.True(t, th.ShouldApply(base.Add(1100*time.Millisecond)))
}

func TestThrottleSuppressedApplyDoesNotExtendWindow(t *testing.T) {
	base := time.Now()
	th := NewThrottle(time.Second)

	assert.True(t, th.ShouldApply(base))
	// a suppressed apply must not push lastApplied forward
	assert.False(t, th.ShouldApply(base.Add(900*time.Millisecond)))
	assert.True(t, th.ShouldApply(base.Add(time.Second)))
}

func TestThrottleDefaultWindow(t *testing.T) {
	base := time.Now()
	th := NewThrottle(0)

	assert.True(t, th.ShouldApply(base))
	assert.False(t, th.ShouldApply(base.Add(999*time.Millisecond)))
	assert.True(t, th.ShouldApply(base.Add(time.Second)))
}
