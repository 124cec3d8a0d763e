package poolz

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// queue is the pool's first-party bounded/unbounded work buffer. A bounded
// queue is a buffered channel of the configured capacity; an unbounded queue
// (capacity <= 0) is backed by a mutex-guarded slice buffer plus a notify
// channel that wakes blocked takers, so TryAdd never blocks regardless of
// depth.
//
// ExtendCapacity reallocates a larger buffered channel and drains the old
// one into it under a short critical section - the rest of the queue keeps
// running against the new channel once the swap completes.
type queue[T any] struct {
	mu           sync.Mutex
	ch           chan T
	baseCapacity int // fixed at construction; never mutated by ExtendCapacity
	capacity     int // current capacity, grown in place by ExtendCapacity

	unbounded bool
	buf       []T
	notify    chan struct{} // closed-and-replaced to wake unbounded waiters

	clock   clockz.Clock
	dispose <-chan struct{} // closed when the owning pool is disposed
}

// newQueue creates a queue. capacity <= 0 selects the unbounded mode. dispose
// is closed once by the owning pool's Stop (its rootCtx.Done()) and unblocks
// any waiter in Add/TryTake independently of the caller-supplied ctx.
func newQueue[T any](capacity int, clock clockz.Clock, dispose <-chan struct{}) *queue[T] {
	q := &queue[T]{clock: clock, dispose: dispose}
	if clock == nil {
		q.clock = clockz.RealClock
	}
	if capacity <= 0 {
		q.unbounded = true
		q.notify = make(chan struct{})
		return q
	}
	q.baseCapacity = capacity
	q.capacity = capacity
	q.ch = make(chan T, capacity)
	return q
}

// TryAdd enqueues item without blocking. Returns false if a bounded queue is
// full; an unbounded queue always succeeds.
func (q *queue[T]) TryAdd(item T) bool {
	if q.unbounded {
		q.mu.Lock()
		q.buf = append(q.buf, item)
		notify := q.notify
		q.notify = make(chan struct{})
		q.mu.Unlock()
		close(notify)
		return true
	}

	q.mu.Lock()
	ch := q.ch
	q.mu.Unlock()

	select {
	case ch <- item:
		return true
	default:
		return false
	}
}

// Add enqueues item, blocking until space is available, ctx is canceled, or
// the owning pool is disposed. Unbounded queues never block.
func (q *queue[T]) Add(ctx context.Context, item T) error {
	if q.unbounded {
		q.TryAdd(item)
		return nil
	}

	q.mu.Lock()
	ch := q.ch
	q.mu.Unlock()

	select {
	case ch <- item:
		return nil
	case <-q.dispose:
		return ErrInterrupted
	case <-ctx.Done():
		return ErrCanceled
	}
}

// TryTake pops one item, blocking up to timeout (negative means forever,
// still interruptible via ctx). Returns ok=false on timeout or cancellation.
func (q *queue[T]) TryTake(ctx context.Context, timeout time.Duration) (item T, ok bool) {
	var timeoutCh <-chan time.Time
	if timeout >= 0 {
		timeoutCh = q.clock.After(timeout)
	}

	if q.unbounded {
		for {
			q.mu.Lock()
			if len(q.buf) > 0 {
				item = q.buf[0]
				q.buf = q.buf[1:]
				q.mu.Unlock()
				return item, true
			}
			waitCh := q.notify
			q.mu.Unlock()

			select {
			case <-waitCh:
				continue
			case <-timeoutCh:
				var zero T
				return zero, false
			case <-q.dispose:
				var zero T
				return zero, false
			case <-ctx.Done():
				var zero T
				return zero, false
			}
		}
	}

	q.mu.Lock()
	ch := q.ch
	q.mu.Unlock()

	select {
	case item, open := <-ch:
		return item, open
	case <-timeoutCh:
		var zero T
		return zero, false
	case <-q.dispose:
		var zero T
		return zero, false
	case <-ctx.Done():
		var zero T
		return zero, false
	}
}

// TryTakeNow pops one item without waiting at all - a true non-blocking
// poll, distinct from TryTake(ctx, 0) which still goes through a timer
// channel and could observe a just-enqueued item the select happened to
// miss. Used by the worker's initial poll attempt (spec §4.4 step 2).
func (q *queue[T]) TryTakeNow() (item T, ok bool) {
	if q.unbounded {
		q.mu.Lock()
		defer q.mu.Unlock()
		if len(q.buf) == 0 {
			var zero T
			return zero, false
		}
		item = q.buf[0]
		q.buf = q.buf[1:]
		return item, true
	}

	q.mu.Lock()
	ch := q.ch
	q.mu.Unlock()

	select {
	case item, open := <-ch:
		return item, open
	default:
		var zero T
		return zero, false
	}
}

// Size returns the current number of queued items.
func (q *queue[T]) Size() int {
	if q.unbounded {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.buf)
	}
	q.mu.Lock()
	ch := q.ch
	q.mu.Unlock()
	return len(ch)
}

// Capacity returns the queue's fixed base capacity (as configured at
// construction), or 0 for unbounded queues. Unlike ExtendedCapacity, this
// never changes over the queue's lifetime.
func (q *queue[T]) Capacity() int {
	if q.unbounded {
		return 0
	}
	return q.baseCapacity
}

// ExtendedCapacity reports the capacity in effect after the most recent
// ExtendCapacity call (equal to Capacity if no extension has occurred).
func (q *queue[T]) ExtendedCapacity() int {
	if q.unbounded {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity
}

// ExtendCapacity grows a bounded queue's capacity to n, draining the
// existing buffered items into the new channel. A no-op if n is not larger
// than the current capacity, or if the queue is unbounded.
func (q *queue[T]) ExtendCapacity(n int) error {
	if q.unbounded {
		return nil
	}
	if n <= 0 {
		return ErrInvalidArgument
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if n <= q.capacity {
		return nil
	}

	newCh := make(chan T, n)
	for {
		select {
		case item := <-q.ch:
			newCh <- item
		default:
			q.ch = newCh
			q.capacity = n
			return nil
		}
	}
}
