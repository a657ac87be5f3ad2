package client

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff"
)

type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateRetrying
	StateGaveUp
)

func (s State) String() string {
	return []string{"Disconnected", "Connected", "Retrying", "GaveUp"}[s]
}

const (
	DefaultMaxAttempts   = 5
	DefaultRetryInterval = 3 * time.Second
	MaxRetryInterval     = 30 * time.Second
)

// StatusFunc observes every supervisor transition.
type StatusFunc func(state State)

// Supervisor drives the connect → degrade → retry cycle of one
// client-side connection. Exceeding the attempt cap parks it in
// StateGaveUp until Reset is called (manual reconnect).
type Supervisor struct {
	lock        sync.Mutex
	state       State
	attempt     int
	maxAttempts int
	delays      *backoff.ExponentialBackOff
	onChange    StatusFunc
}

func NewSupervisor(maxAttempts int, onChange StatusFunc) *Supervisor {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	delays := backoff.NewExponentialBackOff()
	delays.InitialInterval = DefaultRetryInterval
	delays.MaxInterval = MaxRetryInterval
	delays.MaxElapsedTime = 0 // the attempt cap bounds us, not time

	return &Supervisor{
		state:       StateDisconnected,
		maxAttempts: maxAttempts,
		delays:      delays,
		onChange:    onChange,
	}
}

func (s *Supervisor) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Connected resets the retry budget.
func (s *Supervisor) Connected() {
	s.lock.Lock()
	s.attempt = 0
	s.delays.Reset()
	s.transition(StateConnected)
	s.lock.Unlock()
}

// Disconnected marks the connection lost, attempt count untouched.
func (s *Supervisor) Disconnected() {
	s.lock.Lock()
	s.transition(StateDisconnected)
	s.lock.Unlock()
}

// NextRetry consumes one attempt. It returns the delay to wait before
// redialing, or false when the cap is exhausted and the supervisor
// gave up.
func (s *Supervisor) NextRetry() (time.Duration, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state == StateGaveUp {
		return 0, false
	}

	s.attempt++
	if s.attempt > s.maxAttempts {
		s.transition(StateGaveUp)
		return 0, false
	}

	s.transition(StateRetrying)
	return s.delays.NextBackOff(), true
}

func (s *Supervisor) Attempt() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.attempt
}

// Reset re-arms a supervisor that gave up.
func (s *Supervisor) Reset() {
	s.lock.Lock()
	s.attempt = 0
	s.delays.Reset()
	s.transition(StateDisconnected)
	s.lock.Unlock()
}

// transition runs under lock; the callback must not call back in.
func (s *Supervisor) transition(next State) {
	if s.state == next {
		return
	}
	s.state = next
	if s.onChange != nil {
		s.onChange(next)
	}
}
