package poolz

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Metric keys for pool observability.
const (
	MetricSubmittedTotal metricz.Key = "pool.submitted.total"
	MetricCompletedTotal metricz.Key = "pool.completed.total"
	MetricRejectedTotal  metricz.Key = "pool.rejected.total"
	MetricSpawnedTotal   metricz.Key = "pool.spawned.total"
	MetricRetiredTotal   metricz.Key = "pool.retired.total"
	MetricActiveCurrent  metricz.Key = "pool.active.current"
	MetricTotalCurrent   metricz.Key = "pool.total.current"
	MetricQueueDepth     metricz.Key = "pool.queue.depth"
)

// Span names and tags for pool observability.
const (
	SpanSubmit tracez.Key = "pool.submit"
	SpanTick   tracez.Key = "pool.tick"

	TagPoolName     tracez.Tag = "pool.name"
	TagActiveCount  tracez.Tag = "pool.active_count"
	TagTotalCount   tracez.Tag = "pool.total_count"
	TagDelta        tracez.Tag = "pool.delta"
	TagQueueDepth   tracez.Tag = "pool.queue_depth"
	TagRejected     tracez.Tag = "pool.rejected"
	TagCriticalSpan tracez.Tag = "pool.critical"
)

// Hook event keys.
const (
	EventCritical hookz.Key = "pool.critical"
	EventScaled   hookz.Key = "pool.scaled"
	EventStopped  hookz.Key = "pool.stopped"
)

// Signals logged via capitan at the ambient-logging layer.
const (
	SignalPoolSpawned  capitan.Signal = "pool.spawned"
	SignalPoolRetired  capitan.Signal = "pool.retired"
	SignalPoolCritical capitan.Signal = "pool.critical"
	SignalPoolStopped  capitan.Signal = "pool.stopped"
)

// Field keys used with capitan signals.
var (
	FieldPoolName      = capitan.NewStringKey("name")
	FieldActiveWorkers = capitan.NewIntKey("active_workers")
	FieldTotalWorkers  = capitan.NewIntKey("total_workers")
	FieldDelta         = capitan.NewIntKey("delta")
	FieldQueueDepth    = capitan.NewIntKey("queue_depth")
)

// PoolEvent is the payload delivered to hooks registered via OnCritical,
// OnScaled, and OnStopped.
type PoolEvent struct {
	Name          string
	ActiveWorkers int
	TotalWorkers  int
	Delta         int
	Timestamp     time.Time
}

// observability bundles the metricz registry, tracez tracer, and hookz hub
// shared by a single pool instance, constructed the way pipz connectors
// build their own per-instance observability stack in NewRetry/NewFallback.
type observability struct {
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[PoolEvent]
}

func newObservability() *observability {
	registry := metricz.New()
	registry.Counter(MetricSubmittedTotal)
	registry.Counter(MetricCompletedTotal)
	registry.Counter(MetricRejectedTotal)
	registry.Counter(MetricSpawnedTotal)
	registry.Counter(MetricRetiredTotal)
	registry.Gauge(MetricActiveCurrent)
	registry.Gauge(MetricTotalCurrent)
	registry.Gauge(MetricQueueDepth)

	return &observability{
		metrics: registry,
		tracer:  tracez.New(),
		hooks:   hookz.New[PoolEvent](),
	}
}

func (o *observability) emitCritical(ctx context.Context, ev PoolEvent) {
	if o.hooks.ListenerCount(EventCritical) > 0 {
		_ = o.hooks.Emit(ctx, EventCritical, ev) //nolint:errcheck
	}
}

func (o *observability) emitScaled(ctx context.Context, ev PoolEvent) {
	if o.hooks.ListenerCount(EventScaled) > 0 {
		_ = o.hooks.Emit(ctx, EventScaled, ev) //nolint:errcheck
	}
}

func (o *observability) emitStopped(ctx context.Context, ev PoolEvent) {
	if o.hooks.ListenerCount(EventStopped) > 0 {
		_ = o.hooks.Emit(ctx, EventStopped, ev) //nolint:errcheck
	}
}
