package client

import (
	"sync"
	"time"
)

const DefaultThrottleWindow = time.Second

// Throttle suppresses full-state applies arriving faster than the
// minimum interval, absorbing the duplicate a client sees when both
// transports deliver the same update near-simultaneously. It gates
// sync messages only; incremental messages pass through untouched.
type Throttle struct {
	lock        sync.Mutex
	minInterval time.Duration
	lastApplied time.Time
}

func NewThrottle(minInterval time.Duration) *Throttle {
	if minInterval <= 0 {
		minInterval = DefaultThrottleWindow
	}
	return &Throttle{minInterval: minInterval}
}

// ShouldApply reports whether a sync arriving at now may be applied,
// and commits the timestamp only when it may.
func (t *Throttle) ShouldApply(now time.Time) bool {
	t.lock.Lock()
	defer t.lock.Unlock()

	if now.Sub(t.lastApplied) < t.minInterval {
		return false
	}
	t.lastApplied = now
	return true
}
