package pair

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

// window is the time signature of a code path containing a critical
// section, expressed as (delay-to-entry, critical-section length,
// delay-to-return), each scaled cubically by scaledDelay.
type window struct {
	criticalS, criticalT, returnT int
}

// scaledDelay busy-spins for a duration proportional to units^3. Cubic
// scaling makes the race windows much smaller than the entry and return
// delays around them, so alignment genuinely requires a learned offset. A
// tight local counting loop (rather than Gosched or time.Sleep) keeps the
// per-iteration cost small enough to run the full race table in a unit
// test while still producing the relative timing differences the
// estimator needs to converge on. The accumulator is goroutine-local: A
// and B both call scaledDelay concurrently, and sharing one counter
// between them would be a self-inflicted data race in the test harness,
// not the deliberately unsynchronized racy variable under test.
func scaledDelay(units int) {
	n := units * units * units * 4000
	var x uint64
	for i := 0; i < n; i++ {
		x++
	}
	runtime.KeepAlive(x)
}

// race pairs the time signatures of A's and B's paths through their
// respective critical sections.
type race struct {
	name string
	a, b window
}

// races covers the representative alignment cases: already-aligned unit
// windows, a window that sits early in one thread and late in the other
// (in both orientations), a critical section flush against thread entry
// and exit, and a degenerate zero-length window on B's side.
var races = []race{
	{"aligned-unit-windows", window{0, 1, 0}, window{0, 1, 0}},
	{"b-shorter-before-a", window{3, 1, 1}, window{1, 1, 3}},
	{"a-shorter-before-b", window{1, 1, 3}, window{3, 1, 1}},
	{"critical-section-at-entry-exit", window{3, 1, 0}, window{0, 1, 3}},
	{"degenerate-b-window", window{3, 1, 1}, window{0, 0, 0}},
}

// requiredOverlaps is the acceptance threshold: at least this many
// iterations must land outside the {(1,2),(3,4)} too-early/too-late
// (cs, ct) pairs before the iteration budget is exhausted.
const requiredOverlaps = 100

// scenarioExecLoops bounds each scenario's run. The 100-overlap early
// exit usually fires long before this, but a unit test needs a hard
// ceiling.
const scenarioExecLoops = 200000

func runRaceScenario(t *testing.T, r race) {
	t.Helper()

	var c atomic.Int64

	p := New(WithMinSamples(10000), WithExecLoops(scenarioExecLoops))

	worker := func(bv *BView) {
		for bv.RunB() {
			bv.StartRaceB()
			scaledDelay(r.b.criticalS)
			c.Add(1)
			scaledDelay(r.b.criticalT)
			c.Add(1)
			scaledDelay(r.b.returnT)
			bv.EndRaceB()
		}
	}

	if err := p.Reset(worker); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	defer p.Cleanup()

	var tooEarly, tooLate, overlap int

	for p.RunA() {
		p.StartRaceA()
		scaledDelay(r.a.criticalS)

		cs := c.Add(1)
		scaledDelay(r.a.criticalT)
		ct := c.Add(1)

		scaledDelay(r.a.returnT)
		p.EndRaceA()

		switch {
		case cs == 1 && ct == 2:
			tooEarly++
		case cs == 3 && ct == 4:
			tooLate++
		default:
			overlap++
		}

		if got := c.Add(-4); got != 0 {
			t.Fatalf("%s: shared counter did not return to 0 after a full iteration (got %d); cs=%d ct=%d", r.name, got, cs, ct)
		}

		if overlap >= requiredOverlaps {
			break
		}
	}

	if overlap < requiredOverlaps {
		t.Errorf("%s: only %d overlapping iterations in %d (early=%d late=%d), want >= %d within %d iterations",
			r.name, overlap, p.ExecLoop(), tooEarly, tooLate, requiredOverlaps, scenarioExecLoops)
	}
}

func TestRaceScenariosConverge(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive end-to-end convergence test; skipped under -short")
	}

	for _, r := range races {
		r := r
		t.Run(r.name, func(t *testing.T) {
			t.Parallel()
			runRaceScenario(t, r)
		})
	}
}

// readRacy performs one real load of the racy byte. The noinline pragma
// keeps the compiler from folding consecutive reads into one, which would
// collapse A's race window to nothing.
//
//go:noinline
func readRacy(p *byte) byte { return *p }

// TestWinnerScenarioAmplifiesBothOutcomes: B sleeps briefly then
// overwrites a racy (non-atomic, non-synchronized) winner byte that A
// writes immediately before the start barrier; A's window is a double
// read that rewrites 'A' when it straddles B's write. Without alignment
// that interleaving almost never happens; with amplification neither side
// should dominate, so the B-win fraction must land inside [0.1, 0.9] on a
// machine with two usable CPUs.
func TestWinnerScenarioAmplifiesBothOutcomes(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive amplification test; skipped under -short")
	}
	if raceDetectorEnabled {
		t.Skip("races on a plain byte on purpose; the race detector would rightly flag it")
	}

	const iterations = 20000

	var winner byte

	p := New(WithMinSamples(4000), WithExecLoops(iterations))

	worker := func(bv *BView) {
		for bv.RunB() {
			bv.StartRaceB()
			time.Sleep(time.Nanosecond)
			winner = 'B'
			bv.EndRaceB()
		}
	}

	if err := p.Reset(worker); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	defer p.Cleanup()

	var aWins, bWins int
	for p.RunA() {
		winner = 'A'
		p.StartRaceA()
		if readRacy(&winner) == 'A' && readRacy(&winner) == 'B' {
			winner = 'A'
		}
		p.EndRaceA()

		if winner == 'A' {
			aWins++
		} else {
			bWins++
		}
	}

	total := aWins + bWins
	if total == 0 {
		t.Fatal("no iterations recorded")
	}

	fracB := float64(bWins) / float64(total)
	t.Logf("winner scenario: %d iterations, A=%d B=%d (fracB=%.3f)", total, aWins, bWins, fracB)

	if fracB < 0.1 || fracB > 0.9 {
		t.Errorf("fracB = %.3f, want within [0.1, 0.9] (either amplification failed to surface one outcome, or one side dominated)", fracB)
	}
}
