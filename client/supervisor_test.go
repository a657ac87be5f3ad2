package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupervisorRetriesUpToCap(t *testing.T) {
	var seen []State
	sup := NewSupervisor(3, func(s State) { seen = append(seen, s) })

	sup.Connected()
	sup.Disconnected()

	for i := 1; i <= 3; i++ {
		delay, retry := sup.NextRetry()
		assert.True(t, retry, "attempt %d", i)
		assert.Greater(t, delay.Nanoseconds(), int64(0))
		assert.Equal(t, StateRetrying, sup.State())
		assert.Equal(t, i, sup.Attempt())
	}

	_, retry := sup.NextRetry()
	assert.False(t, retry)
	assert.Equal(t, StateGaveUp, sup.State())

	// no further automatic attempts once given up
	_, retry = sup.NextRetry()
	assert.False(t, retry)

	assert.Equal(t, []State{StateConnected, StateDisconnected, StateRetrying, StateGaveUp}, seen)
}

func TestSupervisorConnectedResetsBudget(t *testing.T) {
	sup := NewSupervisor(2, nil)

	_, retry := sup.NextRetry()
	assert.True(t, retry)
	_, retry = sup.NextRetry()
	assert.True(t, retry)

	sup.Connected()
	assert.Equal(t, 0, sup.Attempt())

	_, retry = sup.NextRetry()
	assert.True(t, retry)
}

func TestSupervisorManualResetAfterGaveUp(t *testing.T) {
	sup := NewSupervisor(1, nil)

	_, _ = sup.NextRetry()
	_, retry := sup.NextRetry()
	assert.False(t, retry)
	assert.Equal(t, StateGaveUp, sup.State())

	sup.Reset()
	assert.Equal(t, StateDisconnected, sup.State())

	_, retry = sup.NextRetry()
	assert.True(t, retry)
}
