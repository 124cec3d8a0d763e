package poolz

import (
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// ticker is a thin register/unregister veneer over a clockz.Clock-driven
// goroutine, modeled on the time.Ticker-based scaleLoop/healthCheckLoop
// pattern: a single loop wakes on a fixed period and invokes a callback.
// Using clockz instead of time.NewTicker directly lets tests substitute
// clockz.NewFakeClock() and advance ticks deterministically.
type ticker struct {
	clock  clockz.Clock
	period time.Duration

	mu       sync.Mutex
	callback func(elapsed time.Duration) bool
	stop     chan struct{}
	stopped  bool
}

// newTicker creates a ticker that, once a callback is registered, fires
// every period until the callback returns false or Unregister is called.
func newTicker(clock clockz.Clock, period time.Duration) *ticker {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &ticker{clock: clock, period: period}
}

// Register starts the ticker's loop goroutine with the given callback.
// Calling Register again after Unregister restarts the loop.
func (tk *ticker) Register(callback func(elapsed time.Duration) bool) {
	tk.mu.Lock()
	if tk.stop != nil && !tk.stopped {
		close(tk.stop)
	}
	stop := make(chan struct{})
	tk.stop = stop
	tk.callback = callback
	tk.stopped = false
	tk.mu.Unlock()

	go tk.run(stop, callback)
}

// Unregister stops the ticker's loop goroutine. Idempotent.
func (tk *ticker) Unregister() {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	if tk.stop != nil && !tk.stopped {
		close(tk.stop)
		tk.stopped = true
	}
}

func (tk *ticker) run(stop chan struct{}, callback func(elapsed time.Duration) bool) {
	last := tk.clock.Now()
	for {
		select {
		case now := <-tk.clock.After(tk.period):
			elapsed := now.Sub(last)
			last = now
			if !callback(elapsed) {
				tk.Unregister()
				return
			}
		case <-stop:
			return
		}
	}
}
