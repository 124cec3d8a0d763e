package poolz

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Pool is a self-tuning worker pool: the active-worker count adapts to
// offered load via coordinated growth, throttling, parking/unparking, and
// graceful termination, per the interplay of Census, Blocker, Tracker and
// the PoolManager tick. See doc.go for the design overview.
//
//nolint:govet // fieldalignment: readability over the few bytes saved reordering this struct
type Pool[T any] struct {
	name string

	minWorkers        int
	maxWorkers        int
	reasonableWorkers int
	fastSpawnLimit    int

	census  *Census
	blocker *Blocker
	tracker *Tracker
	queue   *queue[T]
	tk      *ticker
	obs     *observability
	clock   clockz.Clock

	cfg config

	runningCount counter32
	sawWork      flag32

	state atomic.Int32

	startOnce sync.Once
	stopOnce  sync.Once
	rootCtx   context.Context //nolint:containedctx // pool-lifetime context, canceled once by Stop
	rootCancel context.CancelFunc
	done      sync.WaitGroup
}

// New constructs a Pool. handler must be supplied via WithHandler; its
// absence is a construction error, matching the validation rules of spec
// §6: minWorkers >= 0; 1 <= maxWorkers < 4096; maxWorkers >= minWorkers;
// managementPeriod > 0; maxQueueExtension >= 0.
func New[T any](minWorkers, maxWorkers, queueCapacity int, name string, opts ...Option) (*Pool[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if minWorkers < 0 {
		return nil, fmt.Errorf("%w: minWorkers must be >= 0", ErrInvalidArgument)
	}
	if maxWorkers < 1 || maxWorkers >= 4096 {
		return nil, fmt.Errorf("%w: maxWorkers must be in [1, 4095]", ErrInvalidArgument)
	}
	if maxWorkers < minWorkers {
		return nil, fmt.Errorf("%w: maxWorkers must be >= minWorkers", ErrInvalidArgument)
	}
	if cfg.managementPeriod <= 0 {
		return nil, fmt.Errorf("%w: managementPeriod must be > 0", ErrInvalidArgument)
	}
	if cfg.maxQueueExtension < 0 {
		return nil, fmt.Errorf("%w: maxQueueExtension must be >= 0", ErrInvalidArgument)
	}
	if cfg.handler == nil {
		return nil, fmt.Errorf("%w: WithHandler is required", ErrInvalidArgument)
	}

	reasonable := runtime.NumCPU()
	if reasonable > maxWorkers {
		reasonable = maxWorkers
	}
	if reasonable < minWorkers {
		reasonable = minWorkers
	}
	fastSpawnLimit := reasonable / 2
	if fastSpawnLimit < minWorkers {
		fastSpawnLimit = minWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool[T]{
		name:              name,
		minWorkers:        minWorkers,
		maxWorkers:        maxWorkers,
		reasonableWorkers: reasonable,
		fastSpawnLimit:    fastSpawnLimit,
		census:            &Census{},
		blocker:           NewBlocker(maxWorkers).WithClock(cfg.clock),
		tracker:           NewTracker(),
		queue:             newQueue[T](queueCapacity, cfg.clock, ctx.Done()),
		obs:               newObservability(),
		clock:             cfg.clock,
		cfg:               cfg,
		rootCtx:           ctx,
		rootCancel:        cancel,
	}
	p.tk = newTicker(cfg.clock, cfg.managementPeriod)
	p.state.Store(int32(StateCreated))

	return p, nil
}

// Submit enqueues item, blocking until space is available or ctx is done.
func (p *Pool[T]) Submit(ctx context.Context, item T) error {
	if State(p.state.Load()) >= StateStopRequested {
		return ErrClosed
	}
	p.start()

	spanCtx, span := p.obs.tracer.StartSpan(ctx, SpanSubmit)
	defer span.Finish()
	span.SetTag(TagPoolName, p.name)

	if err := p.queue.Add(spanCtx, item); err != nil {
		return err
	}
	p.obs.metrics.Counter(MetricSubmittedTotal).Inc()
	p.maybeSpawn()
	return nil
}

// TrySubmit enqueues item without blocking. Returns false if a bounded
// queue is full (spec §7's CapacityExceeded, reported as a bool).
func (p *Pool[T]) TrySubmit(item T) bool {
	if State(p.state.Load()) >= StateStopRequested {
		return false
	}
	p.start()

	if !p.queue.TryAdd(item) {
		p.obs.metrics.Counter(MetricRejectedTotal).Inc()
		return false
	}
	p.obs.metrics.Counter(MetricSubmittedTotal).Inc()
	p.maybeSpawn()
	return true
}

// maybeSpawn is the fast-spawn-on-enqueue optimization of spec §4.5: an
// optimization, not a correctness requirement, that avoids waiting a full
// management tick for trivially-parallel bursts.
func (p *Pool[T]) maybeSpawn() {
	snap := p.census.Load()
	queueSize := p.queue.Size()
	if snap.Active < p.fastSpawnLimit && snap.Active < queueSize+2 {
		p.addOrActivate(p.fastSpawnLimit)
	}
}

// addOrActivate implements spec §4.5: first attempt a cheap unpark
// (subExpected + incActive); on failure, attempt a full spawn.
func (p *Pool[T]) addOrActivate(cap int) bool {
	p.blocker.SubExpected(1)
	if p.census.IncActive() {
		return true
	}

	if !p.census.IncTotal(cap) {
		return false
	}
	if !p.census.IncActive() {
		// Raced with a concurrent shrink between the two CAS ops; give the
		// slot back rather than leave an inactive, unreachable worker.
		p.census.DecTotal(0)
		return false
	}

	w := &worker[T]{pool: p}
	p.done.Add(1)
	go func() {
		defer p.done.Done()
		w.run(p.rootCtx)
	}()

	p.obs.metrics.Counter(MetricSpawnedTotal).Inc()
	capitan.Info(context.Background(), SignalPoolSpawned,
		FieldPoolName.Field(p.name),
		FieldTotalWorkers.Field(p.census.Load().Total),
	)
	return true
}

// MinWorkers returns the configured minimum worker count.
func (p *Pool[T]) MinWorkers() int { return p.minWorkers }

// MaxWorkers returns the configured maximum worker count.
func (p *Pool[T]) MaxWorkers() int { return p.maxWorkers }

// ActiveWorkers returns the current number of active (unparked) workers.
func (p *Pool[T]) ActiveWorkers() int { return p.census.Load().Active }

// Stats returns a point-in-time snapshot of pool occupancy.
func (p *Pool[T]) Stats() Stats {
	snap := p.census.Load()
	return Stats{
		Total:      snap.Total,
		Active:     snap.Active,
		Parked:     snap.Parked(),
		DieSlots:   snap.DieSlots,
		QueueDepth: p.queue.Size(),
		State:      State(p.state.Load()),
	}
}

// OnCritical registers a handler fired whenever the manager marks a tick
// critical (spec §4.5 step 6).
func (p *Pool[T]) OnCritical(handler func(context.Context, PoolEvent) error) error {
	_, err := p.obs.hooks.Hook(EventCritical, handler)
	return err
}

// OnScaled registers a handler fired whenever the manager changes the
// active-worker count via the tracker's tuning adjustment (spec §4.5 step
// 7).
func (p *Pool[T]) OnScaled(handler func(context.Context, PoolEvent) error) error {
	_, err := p.obs.hooks.Hook(EventScaled, handler)
	return err
}

// OnStopped registers a handler fired once the pool reaches Stopped.
func (p *Pool[T]) OnStopped(handler func(context.Context, PoolEvent) error) error {
	_, err := p.obs.hooks.Hook(EventStopped, handler)
	return err
}
