package poolz

import "sync"

// Tracker observes completed work per management interval and suggests a
// bounded change to the active-worker count. It keeps only a short history
// (the last interval's completion count plus a one-tick reversal-damping
// flag) rather than raw samples - the same cheap-running-aggregate
// discipline as a streaming mean/variance estimator, just specialized to
// "did throughput rise or fall since the last step."
type Tracker struct {
	completions int64Counter

	mu           sync.Mutex
	lastInterval int64
	lastDelta    int
	holdTick     bool
	primed       bool
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RegisterExecution records one completed work item. Safe to call from any
// worker goroutine without coordination.
func (t *Tracker) RegisterExecution() {
	t.completions.add(1)
}

// RegisterAndSuggest is called once per management tick and returns an
// integer change to the active-worker count.
//
//   - If critical, returns +1 (or +2 when currentActive == 0) regardless of
//     history.
//   - Otherwise compares this interval's completions against the last: if
//     throughput rose, returns +1; if it fell, returns -1; flat returns 0.
//     The first non-critical call has no previous interval to compare
//     against: it only records a baseline and returns 0.
//     If needsAdjustment is false, returns 0 even when history would
//     suggest motion.
//   - After a direction reversal, the tracker holds for one tick before
//     reversing again, to dampen oscillation.
//   - The result is always clamped so currentActive+delta stays within
//     [minWorkers, maxWorkers].
func (t *Tracker) RegisterAndSuggest(currentActive, minWorkers, maxWorkers int, needsAdjustment, critical bool) int {
	if critical {
		delta := 1
		if currentActive == 0 {
			delta = 2
		}
		return clampDelta(currentActive, delta, minWorkers, maxWorkers)
	}

	current := t.completions.swap(0)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !needsAdjustment || !t.primed {
		t.lastInterval = current
		t.primed = true
		return 0
	}

	delta := 0
	switch {
	case current > t.lastInterval:
		delta = 1
	case current < t.lastInterval:
		delta = -1
	}

	if t.lastDelta != 0 && delta != 0 && delta != t.lastDelta {
		if !t.holdTick {
			t.holdTick = true
			delta = 0
		} else {
			t.holdTick = false
		}
	} else {
		t.holdTick = false
	}

	t.lastInterval = current
	if delta != 0 {
		t.lastDelta = delta
	}

	return clampDelta(currentActive, delta, minWorkers, maxWorkers)
}

func clampDelta(currentActive, delta, minWorkers, maxWorkers int) int {
	target := currentActive + delta
	if target < minWorkers {
		target = minWorkers
	}
	if target > maxWorkers {
		target = maxWorkers
	}
	return target - currentActive
}
