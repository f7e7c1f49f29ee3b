// Package affinity implements the CPU-affinity and yield policy described
// in the concurrency model: optional pinning of the A and B goroutines to
// distinct CPUs, and automatic detection of the case where hardware
// parallelism cannot be guaranteed (fewer than two usable CPUs), in which
// case the barrier must fall back to a cooperative-yield spin to avoid
// deadlocking a single-CPU system.
//
// Pinning itself is platform-specific (see affinity_linux.go); on
// platforms without a pinning syscall, Pin still locks the calling
// goroutine to its OS thread but binds no CPU and returns an error, which
// the coordinator treats as non-fatal: the run continues unpinned, the
// same as when pinning is declined. ParallelismGuaranteed does not depend
// on the platform; it looks only at GOMAXPROCS and the logical CPU count.
package affinity

import "runtime"

// Policy captures the pinning / yield decisions made once per run (at
// Reset time), outside the hot path, rather than re-deriving them every
// iteration.
type Policy struct {
	// Pinned is true when pinning was requested and parallelism is
	// guaranteed; the coordinator then attempts to pin A and B to distinct
	// CPUs. A failed pinning attempt does not clear it.
	Pinned bool
	// YieldInWait is true iff fewer than two hardware CPUs are guaranteed
	// to run A and B in parallel.
	YieldInWait bool
}

// Decide computes the Policy for a run. requestPin is the caller's opt-in
// to CPU pinning; Decide still forces YieldInWait when parallelism cannot
// be guaranteed regardless of whether pinning was requested, since a
// single-CPU machine deadlocks a pure busy-wait barrier no matter how the
// threads are scheduled.
func Decide(requestPin bool) Policy {
	guaranteed := ParallelismGuaranteed()

	p := Policy{YieldInWait: !guaranteed}

	if requestPin && guaranteed {
		p.Pinned = true
	}

	return p
}

// ParallelismGuaranteed reports whether the runtime can guarantee at least
// two CPUs are available to run A and B concurrently. It is deliberately
// conservative: GOMAXPROCS capped below 2, or fewer than 2 logical CPUs
// detected, both count as "not guaranteed."
func ParallelismGuaranteed() bool {
	if runtime.GOMAXPROCS(0) < 2 {
		return false
	}
	return runtime.NumCPU() >= 2
}

// Pin locks the calling goroutine to its OS thread and attempts to bind
// that thread to the given CPU. It must be called from the goroutine that
// is meant to run pinned (A calls Pin(0), B's worker calls Pin(1), or any
// two distinct CPU indices), since LockOSThread only affects the calling
// goroutine.
//
// Pin returns an error if the platform does not support affinity pinning
// or the syscall fails; callers treat a pinning failure as non-fatal (the
// run continues unpinned, just as it would on a platform with no pinning
// support at all). Pinning is a pure stabilization aid, never a
// correctness requirement.
func Pin(cpu int) error {
	runtime.LockOSThread()
	return setAffinity(cpu)
}

// Unpin releases the calling goroutine's OS thread lock. It is always safe
// to call, including when Pin was never called or failed.
func Unpin() {
	runtime.UnlockOSThread()
}
