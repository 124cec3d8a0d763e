package poolz

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// State is the pool's lifecycle variable (spec §3, §4.6). Transitions are
// monotonic: Created -> Running -> StopRequested -> Stopped.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopRequested
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopRequested:
		return "stop-requested"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a point-in-time snapshot of pool occupancy, returned by Stats().
type Stats struct {
	Total      int
	Active     int
	Parked     int
	DieSlots   int
	QueueDepth int
	State      State
}

// start transitions Created -> Running, prewarms to minWorkers, and
// registers the management tick. Idempotent; called lazily from Submit and
// TrySubmit so a pool that is merely constructed (never submitted to)
// spawns no goroutines.
func (p *Pool[T]) start() {
	p.startOnce.Do(func() {
		p.state.Store(int32(StateRunning))

		if p.minWorkers > 0 {
			p.prewarm(p.minWorkers)
		}

		mgr := &manager[T]{pool: p}
		p.tk.Register(func(elapsed time.Duration) bool {
			if State(p.state.Load()) == StateStopped {
				return false
			}
			mgr.tick(elapsed)
			return true
		})
	})
}

// prewarm is the raw spawn loop shared by start and Prewarm. Kept separate
// from start's body so Prewarm can call p.start() without re-entering
// startOnce.Do from inside itself.
func (p *Pool[T]) prewarm(n int) {
	for i := p.census.Load().Active; i < n; i++ {
		if !p.addOrActivate(p.maxWorkers) {
			return
		}
	}
}

// Prewarm attempts to bring the pool up to n active workers immediately,
// bypassing the management tick's normal growth pacing. Part of spec §4.6's
// Created->Running prewarm behavior; also usable standalone before the
// first submission - it starts the pool (transitioning Created->Running and
// registering the management tick) exactly as Submit/TrySubmit would.
func (p *Pool[T]) Prewarm(n int) error {
	if State(p.state.Load()) >= StateStopRequested {
		return ErrClosed
	}
	p.start()
	p.prewarm(n)
	return nil
}

// Stop transitions Running -> StopRequested, cancels every worker, waits
// for them to join, then transitions StopRequested -> Stopped, per spec
// §4.6. letFinish controls the shutdown-drain policy used by each worker's
// final queue drain (spec §4.4 step 4). Idempotent, mirroring pipz
// Sequence.Close's closeOnce guard; repeated calls are no-ops.
func (p *Pool[T]) Stop(letFinish bool) error {
	p.stopOnce.Do(func() {
		p.cfg.letFinishDefault = letFinish
		p.state.Store(int32(StateStopRequested))
		p.rootCancel()
		p.done.Wait()

		p.tk.Unregister()
		p.state.Store(int32(StateStopped))

		snap := p.census.Load()
		p.obs.emitStopped(context.Background(), PoolEvent{
			Name:          p.name,
			ActiveWorkers: snap.Active,
			TotalWorkers:  snap.Total,
		})
		capitan.Info(context.Background(), SignalPoolStopped, FieldPoolName.Field(p.name))
	})
	return nil
}
