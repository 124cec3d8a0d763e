package poolz

import "sync/atomic"

// int64Counter is a lock-free accumulator with an atomic reset-and-read,
// used by Tracker to fold per-worker completion counts into one per-tick
// sample without a mutex on the hot completion path.
type int64Counter struct {
	v atomic.Int64
}

func (c *int64Counter) add(n int64) {
	c.v.Add(n)
}

func (c *int64Counter) swap(n int64) int64 {
	return c.v.Swap(n)
}

// counter32 is a lock-free up/down counter, used for the pool's runningCount
// - the portable substitute for OS-level thread-state inspection discussed
// in spec §9's open question.
type counter32 struct {
	v atomic.Int32
}

func (c *counter32) inc() { c.v.Add(1) }
func (c *counter32) dec() { c.v.Add(-1) }
func (c *counter32) load() int32 {
	return c.v.Load()
}

// flag32 is a lock-free one-shot-per-tick boolean, used for the manager's
// sawWork signal (set by any worker that completes an item, cleared by the
// manager at the end of each tick).
type flag32 struct {
	v atomic.Bool
}

func (f *flag32) set()          { f.v.Store(true) }
func (f *flag32) clear()        { f.v.Store(false) }
func (f *flag32) isSet() bool   { return f.v.Load() }
