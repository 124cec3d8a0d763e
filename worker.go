package poolz

import (
	"context"

	"github.com/zoobzio/capitan"
)

// workerState is the per-worker loop state of spec §4.4's state machine.
type workerState int

const (
	stateIdleParked workerState = iota
	statePolling
	stateRetiring
)

// worker runs one instance of the park -> poll -> run -> self-park /
// self-retire state machine against its owning pool. It holds a back
// reference to the pool (non-owning, per the cyclic-ownership design note
// in spec §9) purely to reach the shared Census/Blocker/Tracker/queue
// collaborators; the pool owns the worker's goroutine, not vice versa.
type worker[T any] struct {
	pool  *Pool[T]
	state workerState
}

// run executes the worker's state machine until ctx is canceled.
func (w *worker[T]) run(ctx context.Context) {
	// A panic in the loop's own bookkeeping (handler panics are recovered in
	// runItem) retires this worker through the cascade instead of crashing.
	defer func() {
		if r := recover(); r != nil {
			capitan.Error(context.Background(), SignalPoolCritical, FieldPoolName.Field(w.pool.name))
			w.retire()
		}
	}()
	w.state = stateIdleParked
	for {
		if ctx.Err() != nil {
			w.drain(ctx)
			w.retire()
			return
		}

		switch w.state {
		case stateIdleParked:
			w.parkWait(ctx)
		case statePolling:
			w.poll(ctx)
		case stateRetiring:
			w.retire()
			return
		}
	}
}

// parkWait implements spec §4.4 step 1.
func (w *worker[T]) parkWait(ctx context.Context) {
	ok := w.pool.blocker.Wait(ctx, w.pool.cfg.trimPeriod)
	if ctx.Err() != nil {
		w.state = stateRetiring
		return
	}
	if !ok {
		// Timed out with no parking demand placed on us: try to retire.
		if w.pool.census.RequestDieSlot(w.pool.minWorkers, w.pool.maxWorkers) {
			w.state = stateRetiring
			return
		}
	}
	w.pool.census.IncActive() // no-op if already active
	w.state = statePolling
}

// poll implements spec §4.4 step 2.
func (w *worker[T]) poll(ctx context.Context) {
	if item, ok := w.pool.queue.TryTakeNow(); ok {
		w.runItem(item)
		w.state = statePolling
		return
	}

	snap := w.pool.census.Load()
	seenActive := snap.Active

	if seenActive <= w.pool.reasonableWorkers {
		// Long poll: surrender to the park path on timeout.
		item, ok := w.pool.queue.TryTake(ctx, w.pool.cfg.trimPeriod)
		if ctx.Err() != nil {
			w.state = stateRetiring
			return
		}
		if ok {
			w.runItem(item)
			w.state = statePolling
			return
		}
		w.state = stateIdleParked
		return
	}

	// Short poll.
	item, ok := w.pool.queue.TryTake(ctx, w.pool.cfg.stealAwakePeriod)
	if ctx.Err() != nil {
		w.state = stateRetiring
		return
	}
	if ok {
		w.runItem(item)
		w.state = statePolling
		return
	}

	floor := w.pool.minWorkers
	switch {
	case seenActive > w.pool.reasonableWorkers:
		floor = w.pool.reasonableWorkers
	case snap.Total > w.pool.fastSpawnLimit:
		floor = w.pool.fastSpawnLimit
	}
	if w.pool.census.DecActive(floor) {
		w.pool.blocker.AddExpected(1)
		w.state = stateIdleParked
		return
	}
	w.state = statePolling
}

// runItem implements spec §4.4 step 3. The handler always runs against a
// fresh background context, independent of the worker's own cancellation -
// spec §5 is explicit that running items are not interrupted by Stop.
func (w *worker[T]) runItem(item T) {
	ctx := context.Background()
	w.pool.runningCount.inc()
	func() {
		defer w.pool.runningCount.dec()
		defer func() {
			if r := recover(); r != nil {
				capitan.Error(ctx, SignalPoolCritical, FieldPoolName.Field(w.pool.name))
			}
		}()
		if err := w.pool.cfg.handler(ctx, item); err != nil {
			capitan.Warn(ctx, SignalPoolCritical, FieldPoolName.Field(w.pool.name))
		}
	}()
	w.pool.tracker.RegisterExecution()
	w.pool.sawWork.set()
	w.pool.obs.metrics.Counter(MetricCompletedTotal).Inc()
}

// drain implements spec §4.4 step 4: on shutdown, remaining queued items
// are executed (let-finish) or discarded, per the pool's configured policy.
func (w *worker[T]) drain(context.Context) {
	for {
		item, ok := w.pool.queue.TryTakeNow()
		if !ok {
			return
		}
		if w.pool.cfg.letFinishDefault {
			w.runItem(item)
		}
	}
}

// retire performs the cascade, matching the "destruction is initiated only
// by the worker itself" ownership rule. On the trim path the worker has
// claimed a die slot first; on the shutdown path it retires without one,
// and RetireCascade then leaves die_slots unchanged.
func (w *worker[T]) retire() {
	w.pool.census.RetireCascade()
	w.pool.obs.metrics.Counter(MetricRetiredTotal).Inc()
	capitan.Info(context.Background(), SignalPoolRetired, FieldPoolName.Field(w.pool.name))
}
