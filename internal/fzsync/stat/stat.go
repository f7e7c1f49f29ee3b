// Package stat implements the exponentially-smoothed running statistic used
// throughout the coordinator to track race-window timings.
//
// An EMA is chosen over a windowed mean because it is constant-space and
// tracks drift (CPU frequency scaling, thermal throttling) without periodic
// resets. The default smoothing factor alpha=0.25 gives an effective
// horizon of roughly four samples, trading responsiveness for stability.
package stat

import (
	"time"

	"github.com/racewindow/fuzzysync/internal/fzsync/clock"
)

// DefaultAlpha is the smoothing factor used unless a caller overrides it.
const DefaultAlpha = 0.25

// Stat is an exponentially-smoothed pair (avg, avg_dev).
//
// The zero value is ready to use: the first call to Update seeds Avg
// directly rather than smoothing against a phantom zero sample.
type Stat struct {
	// Avg is the running mean.
	Avg float64
	// AvgDev is the running mean absolute deviation. Always >= 0.
	AvgDev float64

	seeded bool
}

// Update folds a new sample into the statistic using smoothing factor
// alpha, per the update rule:
//
//	avg     <- avg + alpha*(x - avg)
//	avg_dev <- avg_dev + alpha*(|x - avg| - avg_dev)
//
// Both right-hand sides read the pre-update avg: the deviation term is
// measured against the mean before it moves.
//
// The first call seeds Avg with x directly and leaves AvgDev at 0, since
// a single sample carries no deviation information yet.
func (s *Stat) Update(alpha, x float64) {
	if !s.seeded {
		s.Avg = x
		s.AvgDev = 0
		s.seeded = true
		return
	}

	dev := x - s.Avg
	if dev < 0 {
		dev = -dev
	}

	s.Avg += alpha * (x - s.Avg)
	s.AvgDev += alpha * (dev - s.AvgDev)
}

// UpdateDiff samples end-start as a nanosecond duration and folds it into
// the statistic. This is the convenience form used at every barrier
// endpoint, where callers hold two clock.Stamp values rather than a raw
// sample.
func (s *Stat) UpdateDiff(alpha float64, end, start clock.Stamp) {
	sample := end.Sub(start)
	s.Update(alpha, float64(sample))
}

// Duration returns Avg reinterpreted as a time.Duration, for callers that
// fed nanosecond samples in via UpdateDiff.
func (s *Stat) Duration() time.Duration {
	return time.Duration(s.Avg)
}

// Reset returns the statistic to its post-init zero state.
func (s *Stat) Reset() {
	*s = Stat{}
}

// Seeded reports whether at least one sample has been folded in.
func (s *Stat) Seeded() bool {
	return s.seeded
}
