// Package ticker runs drift-free periodic callbacks on a clock.Clock.
package ticker

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Ticker fires fn every period. Deadlines are computed from the start time,
// so callback latency does not accumulate.
type Ticker struct {
	mu      sync.Mutex
	clock   clock.Clock
	period  time.Duration
	start   time.Time
	count   int64
	timer   *clock.Timer
	stopped bool
	fn      func(at time.Time)
}

// Every arms a periodic callback. The first call happens one period from
// now; fn receives the deadline it was scheduled for.
func Every(clk clock.Clock, period time.Duration, fn func(at time.Time)) *Ticker {
	ticker := &Ticker{
		clock:  clk,
		period: period,
		start:  clk.Now(),
		fn:     fn,
	}
	ticker.mu.Lock()
	ticker.armLocked()
	ticker.mu.Unlock()
	return ticker
}

// Stop cancels the pending tick and any further ones. It reports whether a
// tick was still pending.
func (ticker *Ticker) Stop() bool {
	ticker.mu.Lock()
	defer ticker.mu.Unlock()
	if ticker.stopped {
		return false
	}
	ticker.stopped = true
	if ticker.timer != nil {
		return ticker.timer.Stop()
	}
	return false
}

func (ticker *Ticker) armLocked() {
	ticker.count++
	deadline := ticker.start.Add(time.Duration(ticker.count) * ticker.period)
	delay := deadline.Sub(ticker.clock.Now())
	if delay < 0 {
		delay = 0
	}
	ticker.timer = ticker.clock.AfterFunc(delay, func() { ticker.fire(deadline) })
}

func (ticker *Ticker) fire(deadline time.Time) {
	ticker.mu.Lock()
	if ticker.stopped {
		ticker.mu.Unlock()
		return
	}
	ticker.armLocked()
	ticker.mu.Unlock()

	ticker.fn(deadline)
}
