package poolz

import (
	"context"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestQueueBoundedTryAddRespectsCapacity(t *testing.T) {
	q := newQueue[int](2, nil, nil)

	if !q.TryAdd(1) {
		t.Fatal("expected first add to succeed")
	}
	if !q.TryAdd(2) {
		t.Fatal("expected second add to succeed")
	}
	if q.TryAdd(3) {
		t.Fatal("expected third add to fail, queue is full")
	}
	if got := q.Size(); got != 2 {
		t.Fatalf("expected size 2, got %d", got)
	}
}

func TestQueueBoundedTryTakeDrains(t *testing.T) {
	q := newQueue[int](4, nil, nil)
	q.TryAdd(10)
	q.TryAdd(20)

	item, ok := q.TryTake(context.Background(), time.Second)
	if !ok || item != 10 {
		t.Fatalf("expected (10, true), got (%d, %v)", item, ok)
	}
	item, ok = q.TryTake(context.Background(), time.Second)
	if !ok || item != 20 {
		t.Fatalf("expected (20, true), got (%d, %v)", item, ok)
	}
}

func TestQueueTryTakeTimesOutWhenEmpty(t *testing.T) {
	clock := clockz.NewFakeClock()
	q := newQueue[int](4, clock, nil)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.TryTake(context.Background(), 50*time.Millisecond)
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond) // let the goroutine register its timer
	clock.Advance(60 * time.Millisecond)
	clock.BlockUntilReady()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected timeout, got a value")
		}
	case <-time.After(time.Second):
		t.Fatal("TryTake did not return after clock advance")
	}
}

func TestQueueTryTakeRespectsCancel(t *testing.T) {
	q := newQueue[int](4, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := q.TryTake(ctx, -1)
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected cancellation to yield ok=false")
		}
	case <-time.After(time.Second):
		t.Fatal("TryTake did not observe cancellation")
	}
}

func TestQueueUnboundedNeverBlocksOnAdd(t *testing.T) {
	q := newQueue[int](0, nil, nil)

	for i := 0; i < 1000; i++ {
		if !q.TryAdd(i) {
			t.Fatalf("unbounded TryAdd unexpectedly failed at %d", i)
		}
	}
	if got := q.Size(); got != 1000 {
		t.Fatalf("expected size 1000, got %d", got)
	}
	if got := q.Capacity(); got != 0 {
		t.Fatalf("expected capacity 0 for unbounded queue, got %d", got)
	}

	for i := 0; i < 1000; i++ {
		item, ok := q.TryTake(context.Background(), time.Second)
		if !ok || item != i {
			t.Fatalf("expected (%d, true), got (%d, %v)", i, item, ok)
		}
	}
}

func TestQueueUnboundedTakeBlocksUntilAdd(t *testing.T) {
	q := newQueue[int](0, nil, nil)

	result := make(chan int, 1)
	go func() {
		item, ok := q.TryTake(context.Background(), time.Second)
		if ok {
			result <- item
		} else {
			result <- -1
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.TryAdd(42)

	select {
	case got := <-result:
		if got != 42 {
			t.Fatalf("expected 42, got %d", got)
		}
	case <-time.After(time.Second):
		t.Fatal("TryTake did not unblock after add")
	}
}

func TestQueueExtendCapacityGrowsAndPreservesOrder(t *testing.T) {
	q := newQueue[int](2, nil, nil)
	q.TryAdd(1)
	q.TryAdd(2)

	if err := q.ExtendCapacity(4); err != nil {
		t.Fatalf("unexpected error extending capacity: %v", err)
	}
	if got := q.Capacity(); got != 2 {
		t.Fatalf("expected base capacity to remain 2, got %d", got)
	}
	if got := q.ExtendedCapacity(); got != 4 {
		t.Fatalf("expected extended capacity 4, got %d", got)
	}
	if !q.TryAdd(3) {
		t.Fatal("expected add to succeed after extension")
	}

	for _, want := range []int{1, 2, 3} {
		item, ok := q.TryTake(context.Background(), time.Second)
		if !ok || item != want {
			t.Fatalf("expected (%d, true), got (%d, %v)", want, item, ok)
		}
	}
}

func TestQueueExtendCapacityNoopWhenSmaller(t *testing.T) {
	q := newQueue[int](4, nil, nil)
	if err := q.ExtendCapacity(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := q.Capacity(); got != 4 {
		t.Fatalf("expected capacity to remain 4, got %d", got)
	}
}

func TestQueueAddUnblockedByDispose(t *testing.T) {
	dispose := make(chan struct{})
	q := newQueue[int](1, nil, dispose)
	q.TryAdd(1) // fill the one slot so the next Add blocks

	errc := make(chan error, 1)
	go func() {
		errc <- q.Add(context.Background(), 2)
	}()

	time.Sleep(10 * time.Millisecond)
	close(dispose)

	select {
	case err := <-errc:
		if err != ErrInterrupted {
			t.Fatalf("expected ErrInterrupted on dispose, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Add did not unblock when disposed")
	}
}

func TestQueueAddReturnsCanceledOnCallerCtx(t *testing.T) {
	q := newQueue[int](1, nil, nil)
	q.TryAdd(1)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- q.Add(ctx, 2)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if err != ErrCanceled {
			t.Fatalf("expected ErrCanceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Add did not unblock on ctx cancellation")
	}
}
