// Package resilience guards calls to flaky downstreams with a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrOpenCircuit is returned while the breaker refuses calls.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State is the breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// Breaker opens once the failure ratio over at least MinRequests calls reaches
// FailureRatio, refuses calls for OpenFor, then lets one probe through.
type Breaker struct {
	Target       string
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
	Logger       zerolog.Logger
	Now          func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	total    int
	openedAt time.Time
	probing  bool
}

// NewBreaker returns a closed breaker for target with defaults filled in.
func NewBreaker(target string, minRequests int, failureRatio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 5
	}
	if failureRatio <= 0 || failureRatio > 1 {
		failureRatio = 0.5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	b := &Breaker{Target: target, MinRequests: minRequests, FailureRatio: failureRatio, OpenFor: openFor, Logger: zerolog.Nop()}
	setState(target, Closed)
	return b
}

// Do runs fn unless the breaker is open. Context cancellation by the caller is
// not counted as a downstream failure.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.allow() {
		return ErrOpenCircuit
	}
	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		b.release()
		return err
	}
	b.report(err == nil)
	return err
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.OpenFor {
			return false
		}
		b.transition(HalfOpen)
		b.probing = true
		return true
	case HalfOpen:
		if b.probing {
			return false
		}
		b.probing = true
		return true
	default:
		return true
	}
}

func (b *Breaker) release() {
	b.mu.Lock()
	b.probing = false
	b.mu.Unlock()
}

func (b *Breaker) report(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == HalfOpen {
		b.probing = false
		if ok {
			b.transition(Closed)
		} else {
			b.transition(Open)
		}
		return
	}
	if b.state == Open {
		return
	}
	b.total++
	if !ok {
		b.failures++
	}
	if b.total < b.MinRequests {
		return
	}
	if float64(b.failures)/float64(b.total) >= b.FailureRatio {
		b.transition(Open)
		return
	}
	// halve the window so old successes do not mask a new outage forever
	if b.total >= b.MinRequests*2 {
		b.total /= 2
		b.failures /= 2
	}
}

func (b *Breaker) transition(next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.failures, b.total = 0, 0
	if next == Open {
		b.openedAt = b.now()
	}
	setState(b.Target, next)
	recordTransition(b.Target, prev, next)
	b.Logger.Warn().Str("target", b.Target).Str("from", prev.String()).Str("to", next.String()).Msg("breaker transition")
}

func (b *Breaker) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}
