package poolz

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
)

// manager runs the periodic PoolManager tick algorithm of spec §4.5 against
// its pool. It is driven by the pool's ticker - see Pool[T].start, which
// registers manager.tick as the ticker's callback.
type manager[T any] struct {
	pool *Pool[T]

	lastTickAt time.Duration // accumulated elapsed time since the last tick ran
}

// tick implements spec §4.5 steps 1-8. elapsed is the time since the
// ticker's previous invocation (which may be shorter than managementPeriod
// - the rate-limit in step 2 absorbs that).
func (m *manager[T]) tick(elapsed time.Duration) {
	if State(m.pool.state.Load()) == StateStopped {
		return
	}

	m.lastTickAt += elapsed
	if m.lastTickAt < m.pool.cfg.managementPeriod {
		return
	}
	m.lastTickAt = 0

	ctx, span := m.pool.obs.tracer.StartSpan(context.Background(), SpanTick)
	defer span.Finish()

	snap := m.pool.census.Load()
	queueSize := m.pool.queue.Size()
	critical := false

	// Step 3: starvation rescue.
	if snap.Active == 0 && queueSize > 0 {
		m.pool.addOrActivate(1)
		snap = m.pool.census.Load()
	}

	// Step 4: normal growth.
	const workItemsPerWorker = 2
	for snap.Active < m.pool.reasonableWorkers {
		boundedFull := m.pool.queue.Capacity() > 0 && queueSize >= m.pool.queue.Capacity()
		if queueSize > workItemsPerWorker*snap.Total || boundedFull {
			if !m.pool.addOrActivate(m.pool.reasonableWorkers) {
				break
			}
			snap = m.pool.census.Load()
			continue
		}
		break
	}

	// Step 5: queue extension.
	baseCapacity := m.pool.queue.Capacity()
	extended := m.pool.queue.ExtendedCapacity()
	if baseCapacity > 0 && !m.pool.sawWork.isSet() &&
		queueSize >= extended &&
		extended-baseCapacity < m.pool.cfg.maxQueueExtension {
		_ = m.pool.queue.ExtendCapacity(snap.Total + 1)
	}

	// Step 6: critical spawn.
	growthStillNeeded := snap.Active < m.pool.reasonableWorkers || queueSize > 0
	if growthStillNeeded && snap.Total >= m.pool.reasonableWorkers {
		running := m.pool.runningCount.load()
		threshold := int32(1)
		if !m.pool.sawWork.isSet() {
			threshold = int32(m.pool.reasonableWorkers)
		}
		if running <= threshold {
			for i := 0; i < 2; i++ {
				m.pool.addOrActivate(m.pool.maxWorkers)
			}
			critical = true
			snap = m.pool.census.Load()
			capitan.Warn(ctx, SignalPoolCritical,
				FieldPoolName.Field(m.pool.name),
				FieldActiveWorkers.Field(snap.Active),
			)
			m.pool.obs.emitCritical(ctx, PoolEvent{
				Name:          m.pool.name,
				ActiveWorkers: snap.Active,
				TotalWorkers:  snap.Total,
			})
		}
	}

	// Step 7: tuning adjustment.
	headroom := snap.Total < m.pool.maxWorkers
	queuePressure := queueSize > 0
	needsAdjustment := headroom && queuePressure
	delta := m.pool.tracker.RegisterAndSuggest(snap.Active, m.pool.minWorkers, m.pool.maxWorkers, needsAdjustment, critical)
	switch {
	case delta > 0:
		for i := 0; i < delta; i++ {
			m.pool.addOrActivate(m.pool.maxWorkers)
		}
	case delta < 0:
		for i := 0; i < -delta; i++ {
			m.pool.census.DecActive(m.pool.reasonableWorkers)
		}
	}
	if delta != 0 {
		snap = m.pool.census.Load()
		m.pool.obs.emitScaled(ctx, PoolEvent{
			Name:          m.pool.name,
			ActiveWorkers: snap.Active,
			TotalWorkers:  snap.Total,
			Delta:         delta,
		})
	}

	span.SetTag(TagActiveCount, fmt.Sprintf("%d", snap.Active))
	span.SetTag(TagTotalCount, fmt.Sprintf("%d", snap.Total))
	span.SetTag(TagDelta, fmt.Sprintf("%d", delta))
	m.pool.obs.metrics.Gauge(MetricActiveCurrent).Set(float64(snap.Active))
	m.pool.obs.metrics.Gauge(MetricTotalCurrent).Set(float64(snap.Total))
	m.pool.obs.metrics.Gauge(MetricQueueDepth).Set(float64(m.pool.queue.Size()))

	// Step 8: clear sawWork.
	m.pool.sawWork.clear()
}
