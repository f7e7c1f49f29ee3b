// Package pair implements the fuzzy-sync coordinator: the Pair type that
// owns the per-iteration barriers, the running statistics, the adaptive
// delay loop, and the CPU-affinity/yield policy shared by the A (driver)
// and B (worker) goroutines.
//
// Ownership is partitioned at the type level: a Pair is written to directly
// by A through its exported methods (StartRaceA, EndRaceA, RunA, Reset,
// Cleanup); B never holds a *Pair, only a *BView, a narrow accessor that
// exposes exactly RunB/StartRaceB/EndRaceB. Handing B a purpose-built,
// restricted view instead of the whole shared object makes it impossible
// for B's goroutine to reach A-owned state by accident.
package pair

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/racewindow/fuzzysync/internal/fzsync/affinity"
	"github.com/racewindow/fuzzysync/internal/fzsync/barrier"
	"github.com/racewindow/fuzzysync/internal/fzsync/clock"
	"github.com/racewindow/fuzzysync/internal/fzsync/estimator"
	"github.com/racewindow/fuzzysync/internal/fzsync/stat"
)

// diagnosticLoop is the one-shot iteration at which RunA emits a progress
// diagnostic via the Printf hook.
const diagnosticLoop = 5000

// Pair is the fuzzy-sync coordinator shared by A and B. The zero value is
// not ready to use; construct one with New.
type Pair struct {
	cfg    Config
	policy affinity.Policy
	br     barrier.Barrier
	launch launcher

	aPinned bool

	// stop is the cooperative cancellation flag: A stores true on its final
	// iteration, breaks the barrier and performs one extra counter bump so
	// a B spinning in EnterB is released, re-checks RunB and exits.
	stop atomic.Bool

	// Timestamps. Each side writes only its own pair, and A only reads
	// B's values between the end rendezvous and A's next start-barrier
	// increment -- an interval in which B is parked at its own next start
	// wait and cannot be writing -- so plain fields are sufficient; the
	// barrier's counter traffic carries the visibility.
	aStart, aEnd, bStart, bEnd clock.Stamp

	// rawSpins/rawSpinPhaseNS are the one-iteration mailbox B uses to hand
	// its spin count (and the wall-clock duration of that spin phase) to
	// A. EndRaceA consumes them with Swap so one iteration's count can
	// never be folded into the calibration twice.
	rawSpins       atomic.Uint32
	rawSpinPhaseNS atomic.Int64

	// delay is the signed spin-unit bias. Written only by A (in
	// recomputeDelay); read by both sides in their respective start-race
	// call, right after the start rendezvous, hence atomic.
	delay atomic.Int64

	// aInWindow/bInWindow track each side's start/end bracketing so
	// misuse (an end without a start, or a second start without an end)
	// panics immediately instead of deadlocking at a barrier the other
	// side will never match. Each flag is touched only by its own side.
	aInWindow bool
	bInWindow bool

	// A-owned statistics and sampling state. aWaitSpins/aWaitNS record
	// A's own wait at the most recent start barrier; they calibrate the
	// spin unit when B never loses a race (a B that is always the slower
	// side would otherwise leave the estimator without a unit forever).
	diffSS, diffSA, diffSB, diffAB stat.Stat
	spins                          stat.Stat
	aWaitSpins                     uint32
	aWaitNS                        float64
	delayIncNS                     float64
	spinPhaseNS                    float64
	samplesRemaining               int64
	execLoop                       int64
	execTimeStart                  time.Time
	diagnosed                      bool
}

// New constructs a Pair: zeroes everything and applies cfg defaults
// (alpha=0.25, min_samples=1024, exec_loops unbounded) plus any caller
// Options.
func New(opts ...Option) *Pair {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Printf == nil {
		cfg.Printf = defaultPrintf
	}

	return &Pair{
		cfg:              cfg,
		samplesRemaining: cfg.MinSamples,
		execTimeStart:    time.Now(),
	}
}

// BView is the restricted view of a Pair given to B's worker goroutine. It
// exposes exactly the three operations B is allowed to call; B never holds
// a *Pair and so cannot reach A-owned state even by accident.
type BView struct {
	p *Pair
}

// Reset reinitializes per-run state and, if worker is non-nil, spawns B on
// its own goroutine running worker(view) until view.RunB() returns false.
// Reset fails if a previously spawned B has not yet been joined via
// Cleanup or a prior RunA exit.
func (p *Pair) Reset(worker func(view *BView)) error {
	if p.launch.running {
		return fmt.Errorf("pair: reset called with a worker still running; call Cleanup first")
	}

	if p.aPinned {
		// A previous Reset pinned A without an intervening Cleanup/RunA
		// exit (possible when the caller never spawns a B worker). Unpin
		// before re-deciding policy so LockOSThread's per-goroutine lock
		// count never grows unbounded across repeated Resets.
		affinity.Unpin()
		p.aPinned = false
	}

	p.stop.Store(false)
	p.aStart, p.aEnd, p.bStart, p.bEnd = clock.Stamp{}, clock.Stamp{}, clock.Stamp{}, clock.Stamp{}
	p.rawSpins.Store(0)
	p.rawSpinPhaseNS.Store(0)
	p.delay.Store(0)
	p.diffSS.Reset()
	p.diffSA.Reset()
	p.diffSB.Reset()
	p.diffAB.Reset()
	p.spins.Reset()
	p.aWaitSpins = 0
	p.aWaitNS = 0
	p.delayIncNS = 0
	p.spinPhaseNS = 0
	p.samplesRemaining = p.cfg.MinSamples
	p.execLoop = 0
	p.execTimeStart = time.Now()
	p.diagnosed = false
	p.aInWindow = false
	p.bInWindow = false
	p.br.Reset()

	p.policy = affinity.Decide(p.cfg.Pin)
	p.br.SetYield(p.policy.YieldInWait)

	if p.policy.Pinned {
		// Pin always locks the calling goroutine's OS thread before
		// attempting the affinity syscall, so aPinned is set (and later
		// unconditionally unpinned) regardless of whether the syscall
		// itself succeeded -- an unpaired LockOSThread would otherwise
		// tie this goroutine to its OS thread for the rest of the run.
		affinity.Pin(0)
		p.aPinned = true
	}

	if worker != nil {
		p.launch.start(1, p.policy.Pinned, func() {
			worker(&BView{p: p})
		})
	}

	return nil
}

// RunA reports whether A should continue its loop. It advances exec_loop,
// checks the iteration and wall-clock budgets, emits the one-shot
// diagnostic at exec_loop==5000, and on a normal (budget-exhausted) exit
// signals B to stop and joins it before returning false.
func (p *Pair) RunA() bool {
	if p.stop.Load() {
		return false
	}

	p.execLoop++

	if p.execLoop == diagnosticLoop && !p.diagnosed {
		p.diagnosed = true
		p.cfg.Printf("fzsync: iteration %d, delay=%d spin units, sampling remaining=%d\n",
			p.execLoop, p.Delay(), p.samplesRemaining)
	}

	if p.cfg.ExecLoops > 0 && p.execLoop > p.cfg.ExecLoops {
		p.stopAndJoin()
		return false
	}

	if p.cfg.ExecBudget > 0 && time.Since(p.execTimeStart) > p.cfg.ExecBudget {
		p.stopAndJoin()
		return false
	}

	return true
}

// RunB reports whether B should continue its loop. It becomes false once A
// has flipped the shared stop flag, whether via a normal RunA exit or an
// explicit Cleanup.
func (b *BView) RunB() bool {
	return !b.p.stop.Load()
}

// StartRaceA rendezvouses with B at the start barrier, applies any
// negative delay bias as a spin, then timestamps a_start. It panics if
// the previous StartRaceA was never balanced by an EndRaceA.
//
// The delay spin must come after the rendezvous, not before it: the
// rendezvous releases both sides at the arrival time of the later party,
// so a spin burned before entering it would shift both windows equally
// and produce no relative offset at all. Only a post-release spin moves
// one window against the other.
func (p *Pair) StartRaceA() {
	if p.aInWindow {
		panic("pair: StartRaceA called twice without an intervening EndRaceA")
	}
	p.aInWindow = true

	waitStart := clock.Now()
	p.aWaitSpins = p.br.EnterA()
	p.aWaitNS = float64(clock.Now().Sub(waitStart))

	if d := p.Delay(); d < 0 {
		p.br.SpinUnits(uint32(-d))
	}
	p.aStart = clock.Now()
}

// StartRaceB rendezvouses with A at the start barrier, applies any
// positive delay bias as a spin, then timestamps b_start. The spin count
// burned waiting for A (and the wall-clock duration of that wait) is
// published for A to fold into the spin-unit calibration in EndRaceA.
// It panics if the previous StartRaceB was never balanced by an EndRaceB.
func (b *BView) StartRaceB() {
	p := b.p

	if p.bInWindow {
		panic("pair: StartRaceB called twice without an intervening EndRaceB")
	}
	p.bInWindow = true

	waitStart := clock.Now()
	spins := p.br.EnterB()
	waited := clock.Now().Sub(waitStart)

	p.rawSpins.Store(spins)
	p.rawSpinPhaseNS.Store(int64(waited))

	if d := p.Delay(); d > 0 {
		p.br.SpinUnits(uint32(d))
	}

	p.bStart = clock.Now()
}

// EndRaceA timestamps a_end, rendezvouses with B at the end barrier, folds
// this iteration's samples into all four diff stats, consumes any spin
// count B published this iteration, and -- while still sampling --
// recomputes the delay bias. It panics if no StartRaceA opened the
// window.
//
// The end rendezvous is what makes the stat updates safe: it seals B's
// b_start/b_end writes for this iteration, and B cannot write again until
// A's next start-barrier increment releases it, so A is the sole writer of
// every statistic without any further synchronization.
func (p *Pair) EndRaceA() {
	if !p.aInWindow {
		panic("pair: EndRaceA called without a matching StartRaceA")
	}
	p.aInWindow = false

	p.aEnd = clock.Now()
	p.br.EnterA()

	p.diffSA.UpdateDiff(p.cfg.Alpha, p.aEnd, p.aStart)
	p.diffSB.UpdateDiff(p.cfg.Alpha, p.bEnd, p.bStart)
	p.diffSS.UpdateDiff(p.cfg.Alpha, p.aStart, p.bStart)
	p.diffAB.UpdateDiff(p.cfg.Alpha, p.aEnd, p.bEnd)

	// Only a spin count greater than one reflects a side actually waiting
	// on a late peer; a count of exactly one means the very first check
	// already found the counters matched (see barrier.spin). B's wait is
	// the primary calibration source; A's own wait substitutes when B
	// never loses a race, since both burn the identical loop.
	if n := p.rawSpins.Swap(0); n > 1 {
		p.spins.Update(p.cfg.Alpha, float64(n))
		p.spinPhaseNS = float64(p.rawSpinPhaseNS.Swap(0))
	} else if p.aWaitSpins > 1 {
		p.spins.Update(p.cfg.Alpha, float64(p.aWaitSpins))
		p.spinPhaseNS = p.aWaitNS
	}

	if p.samplesRemaining > 0 {
		p.recomputeDelay()
	}
}

// EndRaceB timestamps b_end and rendezvouses with A at the end barrier.
// B's own stats are folded in by A after this rendezvous; B never writes a
// statistic. It panics if no StartRaceB opened the window.
func (b *BView) EndRaceB() {
	p := b.p

	if !p.bInWindow {
		panic("pair: EndRaceB called without a matching StartRaceB")
	}
	p.bInWindow = false

	p.bEnd = clock.Now()
	p.br.EnterB()
}

// recomputeDelay is the A-side-only delay bias estimator step. It leaves
// samplesRemaining untouched (extending sampling) whenever the spin-unit
// duration cannot yet be calibrated -- see DESIGN.md -- so a run that never
// observes B losing a race keeps sampling, bounded only by exec_loops,
// rather than freezing a delay computed against a meaningless spin unit.
func (p *Pair) recomputeDelay() {
	ins := estimator.Inputs{
		DiffSS:      p.diffSS,
		DiffSA:      p.diffSA,
		DiffSB:      p.diffSB,
		Spins:       p.spins,
		SpinPhaseNS: p.spinPhaseNS,
	}

	ns, calibrated := estimator.DelayIncNS(ins)
	if !calibrated {
		return
	}
	p.delayIncNS = ns

	d, ok := estimator.Estimate(ins, ns)
	if !ok {
		return
	}

	p.delay.Store(int64(d))
	p.samplesRemaining--
	if p.samplesRemaining < 0 {
		p.samplesRemaining = 0
	}
}

// stopAndJoin flips stop, breaks the barrier and performs one extra
// counter bump so a B spinning in EnterB is released and re-checks RunB,
// then joins B's goroutine. The break and bump happen only on the first
// stop transition so repeated Cleanup calls cannot walk a_cntr away from
// b_cntr; every other step is safe to repeat, which is what makes Cleanup
// idempotent.
func (p *Pair) stopAndJoin() {
	if !p.stop.Swap(true) {
		p.br.Break()
		p.br.BumpA()
	}
	p.launch.join()

	if p.aPinned {
		affinity.Unpin()
		p.aPinned = false
	}
}

// Cleanup stops B (if running), joins it, and releases pinning. It is safe
// to call multiple times and safe to call even if RunA already exited
// normally and joined B itself.
func (p *Pair) Cleanup() {
	p.stopAndJoin()
}

// Delay returns the current signed delay bias in spin units.
func (p *Pair) Delay() estimator.Delay {
	return estimator.Delay(p.delay.Load())
}

// Sampling reports whether the engine is still in sampling mode (true) or
// has frozen its delay and entered amplify mode (false).
func (p *Pair) Sampling() bool {
	return p.samplesRemaining > 0
}

// ExecLoop returns the current iteration index.
func (p *Pair) ExecLoop() int64 {
	return p.execLoop
}

// Counters returns the raw barrier counters, for invariant checks such as
// |a_cntr - b_cntr| <= 1 outside the barrier.
func (p *Pair) Counters() (a, b uint32) {
	return p.br.Counters()
}

// AStart returns the a_start timestamp published by the most recent
// StartRaceA call.
func (p *Pair) AStart() clock.Stamp { return p.aStart }

// AEnd returns the a_end timestamp published by the most recent EndRaceA
// call.
func (p *Pair) AEnd() clock.Stamp { return p.aEnd }

// BStart returns the b_start timestamp published by B's most recent
// StartRaceB call. Safe to call from A between its own EndRaceA return
// and the next StartRaceA, the interval in which B is parked at its next
// start wait.
func (p *Pair) BStart() clock.Stamp { return p.bStart }

// BEnd returns the b_end timestamp published by B's most recent EndRaceB
// call, under the same read window as BStart.
func (p *Pair) BEnd() clock.Stamp { return p.bEnd }
