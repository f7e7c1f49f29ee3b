// Package barrier implements the two-counter rendezvous that synchronizes
// the A and B sides of a fuzzy-sync pair at the start and end of each
// iteration.
//
// The barrier is spin-only by design: a futex or condition variable would
// add microseconds of scheduling jitter that swamp the nanosecond-scale
// races this library exists to probe. All coordination happens through two
// plain atomic counters, one per side, checked with
// acquire-load/release-store semantics.
package barrier

import (
	"runtime"
	"sync/atomic"
)

// Barrier is a rendezvous point between exactly two parties, A and B.
//
// aCntr and bCntr are deliberately placed on separate cache lines (padded
// below) to avoid false sharing: the whole point of the barrier is to
// measure nanosecond-scale timing, and two hot counters sharing a cache
// line would perturb exactly the measurement being taken. This is a
// performance invariant, not a correctness one.
type Barrier struct {
	aCntr atomic.Uint32
	_     [60]byte // pad to a second cache line

	bCntr atomic.Uint32
	_     [60]byte

	// yield selects the spin policy: when true, each spin iteration calls
	// runtime.Gosched() to cooperatively yield, which is required when
	// fewer than two hardware threads are guaranteed to run A and B in
	// parallel (see the affinity package). When false the spin is a pure
	// busy-wait.
	yield atomic.Bool

	// done breaks every spin loop regardless of counter state. Set once
	// during shutdown so a party waiting on a rendezvous the other side
	// will never reach is released instead of spinning forever.
	done atomic.Bool
}

// SetYield toggles the cooperative-yield spin policy.
func (b *Barrier) SetYield(yield bool) {
	b.yield.Store(yield)
}

// Yielding reports the current spin policy.
func (b *Barrier) Yielding() bool {
	return b.yield.Load()
}

// Reset returns the barrier to its post-init zero state: both counters back
// to 0 and the spin policy back to pure busy-wait. Callers must only call
// Reset when no goroutine is currently inside EnterA/EnterB/SpinUnits for
// this barrier, the same precondition the coordinator's own Reset places on
// the whole Pair.
func (b *Barrier) Reset() {
	b.aCntr.Store(0)
	b.bCntr.Store(0)
	b.yield.Store(false)
	b.done.Store(false)
}

// Break releases every current and future spin waiter. Only Reset rearms
// the barrier afterwards.
func (b *Barrier) Break() {
	b.done.Store(true)
}

// Counters returns the current (a, b) counter values, for invariant checks
// such as |a_cntr - b_cntr| <= 1 outside the barrier.
func (b *Barrier) Counters() (a, bVal uint32) {
	return b.aCntr.Load(), b.bCntr.Load()
}

// spin busy-waits (optionally yielding) until cond reports true, returning
// the number of spin iterations performed. It always performs at least one
// check after the caller's own counter bump is visible, satisfying the
// tie-break rule: a party that begins to wait having just published its own
// increment must still issue one atomic read afterward, or it can miss a
// concurrent arrival from the other side.
func (b *Barrier) spin(cond func() bool) uint32 {
	var n uint32
	for {
		n++
		if cond() || b.done.Load() {
			return n
		}
		if b.yield.Load() {
			runtime.Gosched()
		}
	}
}

// EnterA performs A's half of a rendezvous: increment aCntr, then spin
// until bCntr catches up, returning the number of spin iterations burned.
// A count above one means B was the late party.
func (b *Barrier) EnterA() (spins uint32) {
	target := b.aCntr.Add(1)
	return b.spin(func() bool {
		// At or past target: B may already have left this rendezvous and
		// incremented again for the next one before A's first check.
		return int32(b.bCntr.Load()-target) >= 0
	})
}

// EnterB performs B's half of a rendezvous and returns the number of spin
// iterations B burned waiting for A. A count above one means A was the
// late party, which is exactly the signal the delay estimator uses to
// calibrate the physical duration of one spin unit.
func (b *Barrier) EnterB() (spins uint32) {
	target := b.bCntr.Add(1)
	return b.spin(func() bool {
		// At or past target, for the same reason as in EnterA.
		return int32(b.aCntr.Load()-target) >= 0
	})
}

// BumpA increments aCntr once without waiting. Used during shutdown
// alongside Break: after A flips the shared stop flag, one more counter
// increment lets a B spinning in EnterB observe forward progress and
// re-check its run condition even before it notices done.
func (b *Barrier) BumpA() {
	b.aCntr.Add(1)
}

// SpinUnits busy-waits for exactly n iterations of the same loop body EnterA
// and EnterB use to wait on each other. The delay estimator calibrates
// delay_inc against this exact primitive, so applying a delay bias by
// calling SpinUnits is the only way the induced wait has the physical
// duration the estimator assumes; a time.Sleep or a different loop shape
// would silently invalidate the calibration.
func (b *Barrier) SpinUnits(n uint32) {
	for i := uint32(0); i < n; i++ {
		_ = b.aCntr.Load()
		if b.yield.Load() {
			runtime.Gosched()
		}
	}
}
