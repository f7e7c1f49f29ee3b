// Package fzsync provides statistical alignment of critical sections
// across two goroutines so that a rare data race can be triggered
// reproducibly in a reasonable number of iterations.
//
// Two goroutines, A (driver) and B (worker), each execute a loop containing
// an unknown "race window" -- the interval during which a racy access
// occurs. Pair learns, from measured timings, the delay that must be
// inserted on one side so the two windows overlap on nearly every
// iteration. It does not detect races, instrument memory, or change
// scheduling policy beyond optional cooperative yields: it is a
// probability amplifier for a pre-existing race, not a correctness tool.
//
// A typical use:
//
//	p := fzsync.New(fzsync.WithMinSamples(10000))
//	err := p.Reset(func(b *fzsync.BView) {
//		for b.RunB() {
//			b.StartRaceB()
//			// ... B's side of the race ...
//			b.EndRaceB()
//		}
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.Cleanup()
//
//	for p.RunA() {
//		p.StartRaceA()
//		// ... A's side of the race ...
//		p.EndRaceA()
//	}
//
// This package is a thin re-export of internal/fzsync/pair: the public
// operation surface (init/reset/run/start/end/cleanup) with no logic of
// its own, so the coordinator's implementation stays importable without
// exposing its internal subpackages.
package fzsync

import (
	"time"

	"github.com/racewindow/fuzzysync/internal/fzsync/pair"
)

// Pair is the fuzzy-sync coordinator shared by the A and B goroutines. See
// the package doc for the operation sequence.
type Pair = pair.Pair

// BView is the restricted view of a Pair handed to B's worker function. It
// exposes only RunB, StartRaceB and EndRaceB; B never gets a *Pair.
type BView = pair.BView

// Config holds the values chosen once, at construction time, that survive
// across Reset calls.
type Config = pair.Config

// Option configures a Pair at construction time. See With* below.
type Option = pair.Option

// New constructs a Pair, applying defaults (alpha=0.25, min_samples=1024,
// unbounded exec_loops) and then any Options.
func New(opts ...Option) *Pair {
	return pair.New(opts...)
}

// WithAlpha overrides the default EMA smoothing factor (default 0.25).
func WithAlpha(alpha float64) Option { return pair.WithAlpha(alpha) }

// WithMinSamples overrides the minimum number of samples required before
// the engine may leave sampling mode (default 1024).
func WithMinSamples(n int64) Option { return pair.WithMinSamples(n) }

// WithExecLoops sets a hard upper bound on iterations (default unbounded).
func WithExecLoops(n int64) Option { return pair.WithExecLoops(n) }

// WithExecBudget sets a wall-clock runtime budget (default unbounded).
func WithExecBudget(d time.Duration) Option { return pair.WithExecBudget(d) }

// WithCPUPinning requests A/B CPU affinity pinning to stabilize timing
// measurements. Ignored (with automatic cooperative-yield fallback) when
// the runtime cannot guarantee two CPUs are available.
func WithCPUPinning(pin bool) Option { return pair.WithCPUPinning(pin) }

// WithPrintf overrides the diagnostic printer hook invoked for one-shot
// progress messages. Defaults to writing one line to os.Stderr.
func WithPrintf(fn func(format string, args ...any)) Option { return pair.WithPrintf(fn) }
