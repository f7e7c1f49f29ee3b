// Package estimator implements the delay bias estimator of the fuzzy sync
// coordinator: the piece that converts measured window timings into the
// signed spin-unit offset one side should apply on its next iteration.
//
// The estimator is deliberately small and stateless between calls -- it
// reads a snapshot of the Stats the coordinator maintains and returns a new
// Delay, rather than owning any running state itself. Keeping the pure
// math separate from the stateful coordinator that calls it makes the
// math independently testable and keeps the coordinator's own update loop
// free of arithmetic detail.
package estimator

import (
	"math"

	"github.com/racewindow/fuzzysync/internal/fzsync/stat"
)

// Delay is the signed bias, in spin units, that the coordinator applies on
// the next iteration's start barrier.
//
//   - Delay < 0 means A delays |Delay| units on its next start.
//   - Delay > 0 means B delays Delay units on its next start.
//   - Delay == 0 means neither side delays.
//
// A single signed field is used rather than two one-sided delays: the two
// race windows may sit arbitrarily within their threads' execution
// envelopes, so sometimes A must wait for B and sometimes B must wait for
// A, and a single-sided delay cannot cover both cases.
type Delay int64

// Inputs bundles the running statistics the estimator needs to compute the
// next Delay. All fields are read-only snapshots; the estimator never
// mutates a Stat.
type Inputs struct {
	// DiffSS is the Stat on a_start - b_start, the alignment error of race
	// entries.
	DiffSS stat.Stat
	// DiffSA is the Stat on the length of A's critical section.
	DiffSA stat.Stat
	// DiffSB is the Stat on the length of B's critical section.
	DiffSB stat.Stat
	// Spins is the Stat on the number of spin iterations B burned waiting
	// at the start barrier when A was the late party; on iterations where
	// B published none, the coordinator feeds in A's own start-barrier
	// wait instead.
	Spins stat.Stat
	// SpinPhaseNS is the measured wall-clock duration, in nanoseconds, of
	// the previous spin phase used to calibrate Spins into a physical
	// duration.
	SpinPhaseNS float64
}

// DelayIncNS returns the calibrated duration, in nanoseconds, of one spin
// unit, derived from Spins.Avg and the wall-clock duration of the previous
// spin phase.
//
// If no spin phase was measured during sampling (Spins never seeded), the
// duration cannot be measured. The coordinator is expected to detect this
// case via the calibrated flag and extend sampling rather than freezing a
// delay computed against a meaningless spin-unit duration; a silent
// one-spin-unit fallback would risk converging to an arbitrary,
// un-calibrated bias.
func DelayIncNS(in Inputs) (ns float64, calibrated bool) {
	if !in.Spins.Seeded() || in.Spins.Avg <= 0 {
		return 0, false
	}
	return in.SpinPhaseNS / in.Spins.Avg, true
}

// Estimate computes the next Delay from the current Inputs and the
// calibrated spin-unit duration.
//
// Update rule:
//
//	target_ns = (diff_sb.avg - diff_sa.avg) / 2
//	bias_ns   = diff_ss.avg - target_ns
//	delay     = round(bias_ns / delay_inc_ns)
//
// with saturation clamping |delay|*delay_inc_ns <= 2*max(diff_sa.avg,
// diff_sb.avg), preventing runaway over-correction when one window is
// nearly zero.
//
// Estimate returns ok=false (and Delay 0) if delayIncNS is not positive,
// since dividing by a zero or negative spin-unit duration is meaningless;
// callers must check DelayIncNS's calibrated flag before calling Estimate.
func Estimate(in Inputs, delayIncNS float64) (d Delay, ok bool) {
	if delayIncNS <= 0 {
		return 0, false
	}

	targetNS := (in.DiffSB.Avg - in.DiffSA.Avg) / 2
	biasNS := in.DiffSS.Avg - targetNS

	raw := math.Round(biasNS / delayIncNS)

	maxWindow := in.DiffSA.Avg
	if in.DiffSB.Avg > maxWindow {
		maxWindow = in.DiffSB.Avg
	}
	if maxWindow < 0 {
		maxWindow = 0
	}

	maxUnits := math.Floor((2 * maxWindow) / delayIncNS)
	if raw > maxUnits {
		raw = maxUnits
	} else if raw < -maxUnits {
		raw = -maxUnits
	}

	return Delay(int64(raw)), true
}

// Stable reports whether the alignment-error statistic has settled enough
// to trust a delay recomputation: diff_ss.avg_dev must sit below a
// fraction of the shorter of the two window-length statistics, and at
// least one sample must have been folded into every relevant Stat.
//
// The simple sample-count gate (see Pair.Sampling in the pair package)
// remains the primary switch between sampling and amplify mode; Stable is
// an additional, optional guard a caller may consult before trusting any
// one recomputation, not a replacement for the counter. A pure count is
// cheap and deterministic across runs, which matters for reproducing a
// given delay from a given iteration count; a variance-based gate would
// make convergence timing depend on measurement noise instead.
func Stable(in Inputs, tolerance float64) bool {
	if !in.DiffSS.Seeded() || !in.DiffSA.Seeded() || !in.DiffSB.Seeded() {
		return false
	}

	minWindow := in.DiffSA.Avg
	if in.DiffSB.Avg < minWindow {
		minWindow = in.DiffSB.Avg
	}
	if minWindow <= 0 {
		// Degenerate windows (one side length 0) can never produce a
		// positive threshold; treat the statistic as stable so the engine
		// does not stall forever on a race whose shorter window is
		// zero-length.
		return true
	}

	return in.DiffSS.AvgDev <= tolerance*minWindow
}

// DefaultStableTolerance is the fraction of the shorter window's average
// length that diff_ss.avg_dev must fall under for Stable to return true.
const DefaultStableTolerance = 0.5
