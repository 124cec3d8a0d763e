package poolz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// Blocker is a counting gate that parks workers without destroying them.
// The manager schedules parks with AddExpected and releases them with
// SubExpected; a parked worker calls Wait and blocks while demand exists.
//
// Correctness requirement: if k workers currently hold Wait, SubExpected(1)
// releases exactly one of them in bounded time. The release is delivered
// through a buffered token channel sized to the pool's maxWorkers, so a
// release issued while nobody is waiting is never lost - the next Wait call
// observes the outstanding demand and returns immediately without blocking.
type Blocker struct {
	mu       sync.Mutex
	expected int
	tokens   chan struct{}
	clock    clockz.Clock
}

// NewBlocker creates a Blocker sized for a pool with at most maxWorkers
// tracked workers.
func NewBlocker(maxWorkers int) *Blocker {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Blocker{
		tokens: make(chan struct{}, maxWorkers),
		clock:  clockz.RealClock,
	}
}

// WithClock overrides the clock used for timed waits. Intended for tests.
func (b *Blocker) WithClock(clock clockz.Clock) *Blocker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = clock
	return b
}

// AddExpected increases the parking demand by n - the manager intends to
// hold n additional workers parked.
func (b *Blocker) AddExpected(n int) {
	if n <= 0 {
		return
	}
	b.mu.Lock()
	b.expected += n
	b.mu.Unlock()
}

// SubExpected decreases the parking demand by up to n and releases that
// many parked workers. Tokens are delivered via a non-blocking buffered
// send so SubExpected never blocks the caller (typically the manager).
func (b *Blocker) SubExpected(n int) {
	if n <= 0 {
		return
	}
	b.mu.Lock()
	if n > b.expected {
		n = b.expected
	}
	b.expected -= n
	b.mu.Unlock()

	for i := 0; i < n; i++ {
		select {
		case b.tokens <- struct{}{}:
		default:
			// Buffer full: every tracked worker already has an outstanding
			// release token, nothing more to deliver.
		}
	}
}

// Expected returns the current parking demand.
func (b *Blocker) Expected() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.expected
}

// Wait blocks the caller while the blocker has unmet parking demand.
// A negative timeout means wait indefinitely (still interruptible via ctx).
// Returns true if the demand was observed met (either no demand existed,
// or a release token arrived) within the timeout; false on timeout. The
// caller must re-check whatever condition it parked on - a returned true
// does not guarantee demand stays at zero past the call.
func (b *Blocker) Wait(ctx context.Context, timeout time.Duration) bool {
	b.mu.Lock()
	demand := b.expected
	clock := b.clock
	b.mu.Unlock()

	if demand <= 0 {
		return true
	}

	var timeoutCh <-chan time.Time
	if timeout >= 0 {
		timeoutCh = clock.After(timeout)
	}

	select {
	case <-b.tokens:
		return true
	case <-timeoutCh:
		return false
	case <-ctx.Done():
		return false
	}
}
