package poolz

import (
	"runtime"
	"sync/atomic"
)

// Census is a single 32-bit word packing the three counts that describe a
// pool's worker population: total workers tracked, workers currently
// active (not parked), and outstanding die-slot permissions (retirement
// grants not yet claimed).
//
// Layout: bits [0:12) total, bits [12:24) active, bits [24:32) die_slots.
// All mutation is lock-free compare-and-swap over the packed word so the
// cross-field invariants below hold atomically - no separate atomics could
// give this without a lock, since e.g. retireCascade touches all three
// fields in one step.
//
// Invariants, true at every observable moment:
//  1. 0 <= active <= total
//  2. 0 <= die_slots <= 255
//  3. total <= maxWorkers (enforced at construction, maxWorkers in [1,4095])
//  4. when total decreases by one: if active was equal to total, active
//     also decreases by one; if die_slots > 0, one die slot is consumed.
type Census struct {
	word atomic.Uint32
}

const (
	totalBits  = 12
	activeBits = 12

	totalMask  = 1<<totalBits - 1  // 0xFFF
	activeMask = 1<<activeBits - 1 // 0xFFF
	dieMask    = 1<<8 - 1          // 0xFF

	activeShift = totalBits
	dieShift    = totalBits + activeBits

	// MaxTotal is the largest total the 12-bit field can represent.
	MaxTotal = totalMask
	// MaxDieSlots is the largest die_slots the 8-bit field can represent.
	MaxDieSlots = dieMask
)

func pack(total, active, die uint32) uint32 {
	return (total & totalMask) | ((active & activeMask) << activeShift) | ((die & dieMask) << dieShift)
}

func unpack(word uint32) (total, active, die uint32) {
	total = word & totalMask
	active = (word >> activeShift) & activeMask
	die = (word >> dieShift) & dieMask
	return
}

// Snapshot is a consistent read of the three census fields at one instant.
type Snapshot struct {
	Total    int
	Active   int
	DieSlots int
}

// Parked returns the number of tracked workers not currently active.
func (s Snapshot) Parked() int { return s.Total - s.Active }

// ProjectedAlive returns the total minus outstanding die-slot grants -
// the worker count the pool expects to have once pending retirements land.
func (s Snapshot) ProjectedAlive() int { return s.Total - s.DieSlots }

// Load returns a consistent snapshot of the census.
func (c *Census) Load() Snapshot {
	total, active, die := unpack(c.word.Load())
	return Snapshot{Total: int(total), Active: int(active), DieSlots: int(die)}
}

// spin gives other CAS participants a chance to make progress. The spin is
// bounded only by the fact that one of the racing participants always
// succeeds within a handful of retries - there is no starvation case for a
// single packed word under CompareAndSwap.
func spin(attempt int) {
	if attempt > 4 {
		runtime.Gosched()
	}
}

// tryUpdate applies f to the current (total, active, die) triple and
// attempts to CAS the result in. f returns ok=false to abort without
// retrying (the operation's precondition failed). Returns whether the
// update committed.
func (c *Census) tryUpdate(f func(total, active, die uint32) (newTotal, newActive, newDie uint32, ok bool)) bool {
	for attempt := 0; ; attempt++ {
		old := c.word.Load()
		total, active, die := unpack(old)
		nt, na, nd, ok := f(total, active, die)
		if !ok {
			return false
		}
		newWord := pack(nt, na, nd)
		if c.word.CompareAndSwap(old, newWord) {
			return true
		}
		spin(attempt)
	}
}

// IncTotal succeeds iff total < min(cap, MaxTotal); increments total.
func (c *Census) IncTotal(cap int) bool {
	limit := uint32(cap)
	if limit > MaxTotal {
		limit = MaxTotal
	}
	return c.tryUpdate(func(total, active, die uint32) (uint32, uint32, uint32, bool) {
		if total >= limit {
			return 0, 0, 0, false
		}
		return total + 1, active, die, true
	})
}

// DecTotal succeeds iff total > floor; decrements total. Per invariant 4,
// active is decremented too when it equals total, and one die slot is
// consumed when any are outstanding.
func (c *Census) DecTotal(floor int) bool {
	f := uint32(floor)
	return c.tryUpdate(func(total, active, die uint32) (uint32, uint32, uint32, bool) {
		if total <= f {
			return 0, 0, 0, false
		}
		newActive, newDie := active, die
		if active == total {
			newActive = active - 1
		}
		if die > 0 {
			newDie = die - 1
		}
		return total - 1, newActive, newDie, true
	})
}

// IncActive succeeds iff active < total; increments active.
func (c *Census) IncActive() bool {
	return c.tryUpdate(func(total, active, die uint32) (uint32, uint32, uint32, bool) {
		if active >= total {
			return 0, 0, 0, false
		}
		return total, active + 1, die, true
	})
}

// DecActive succeeds iff active > floor; decrements active.
func (c *Census) DecActive(floor int) bool {
	f := uint32(floor)
	return c.tryUpdate(func(total, active, die uint32) (uint32, uint32, uint32, bool) {
		if active <= f {
			return 0, 0, 0, false
		}
		return total, active - 1, die, true
	})
}

// RequestDieSlot succeeds iff projected_alive > floor, total <= ceil, and
// die_slots < MaxDieSlots; increments die_slots.
func (c *Census) RequestDieSlot(floor, ceil int) bool {
	f, cl := uint32(floor), uint32(ceil)
	return c.tryUpdate(func(total, active, die uint32) (uint32, uint32, uint32, bool) {
		projectedAlive := total - die
		if projectedAlive <= f || total > cl || die >= MaxDieSlots {
			return 0, 0, 0, false
		}
		return total, active, die + 1, true
	})
}

// RetireCascade is the atomic composite used exactly once by a retiring
// worker: if die_slots > 0 it is decremented; if active == total, active is
// also decremented (ActiveWasDecremented reports this); total is always
// decremented. The new word is computed in one step so the invariants of
// Census hold atomically across the transition.
func (c *Census) RetireCascade() (activeWasDecremented bool) {
	for attempt := 0; ; attempt++ {
		old := c.word.Load()
		total, active, die := unpack(old)

		newDie := die
		if die > 0 {
			newDie = die - 1
		}

		newActive := active
		decremented := false
		if active == total {
			newActive = active - 1
			decremented = true
		}

		newTotal := total - 1

		newWord := pack(newTotal, newActive, newDie)
		if c.word.CompareAndSwap(old, newWord) {
			return decremented
		}
		spin(attempt)
	}
}
