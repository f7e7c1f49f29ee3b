// basic.go implements the 'fzsync-demo basic' command: a 24-scenario race
// table covering aligned, offset, flush-to-entry/exit and degenerate
// window shapes, exercised against the public fzsync API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/racewindow/fuzzysync"
)

// window is a code path's time signature: delay to the critical section,
// the critical section's own length, and the remaining delay to return,
// each scaled cubically (see scaledDelay) so the windows are far smaller
// than the delays around them.
type window struct {
	criticalS, criticalT, returnT int
}

type raceRow struct {
	a, b window
}

// races walks the alignment space: degenerate already-aligned cases,
// equal-length windows in both orderings, unequal windows, windows flush
// against thread entry or exit, and one side nearly or exactly
// zero-length.
var races = []raceRow{
	{window{0, 0, 0}, window{0, 0, 0}},
	{window{0, 1, 0}, window{0, 1, 0}},
	{window{1, 1, 1}, window{1, 1, 1}},
	{window{3, 1, 1}, window{3, 1, 1}},

	{window{3, 1, 1}, window{1, 1, 3}},
	{window{1, 1, 3}, window{3, 1, 1}},

	{window{3, 1, 1}, window{1, 1, 2}},
	{window{1, 1, 3}, window{2, 1, 1}},
	{window{2, 1, 1}, window{1, 1, 3}},
	{window{1, 1, 2}, window{3, 1, 1}},

	{window{3, 1, 0}, window{0, 1, 3}},
	{window{0, 1, 3}, window{3, 1, 0}},

	{window{3, 1, 0}, window{0, 1, 2}},
	{window{0, 1, 3}, window{2, 1, 0}},
	{window{2, 1, 0}, window{0, 1, 3}},
	{window{0, 1, 2}, window{3, 1, 0}},

	{window{3, 1, 1}, window{0, 1, 0}},
	{window{1, 1, 3}, window{0, 1, 0}},
	{window{0, 1, 0}, window{1, 1, 3}},
	{window{0, 1, 0}, window{3, 1, 1}},

	{window{3, 1, 1}, window{0, 0, 0}},
	{window{1, 1, 3}, window{0, 0, 0}},
	{window{0, 0, 0}, window{1, 1, 3}},
	{window{0, 0, 0}, window{3, 1, 1}},
}

// scaledDelay busy-spins for a duration proportional to units^3. The
// accumulator is goroutine-local: A and B both call scaledDelay
// concurrently, so a shared counter here would be a data race of this
// demo's own making.
func scaledDelay(units int) {
	n := units * units * units * 4000
	var x uint64
	for i := 0; i < n; i++ {
		x++
	}
	runtime.KeepAlive(x)
}

type basicConfig struct {
	debug bool
}

func parseBasicArgs(args []string) basicConfig {
	var cfg basicConfig
	for _, a := range args {
		if a == "-debug" {
			cfg.debug = true
		}
	}
	return cfg
}

func basicCommand(args []string) {
	cfg := parseBasicArgs(args)

	if mp := modulePath(); mp != "" {
		slog.Info("fzsync-demo basic starting", "module", mp, "races", len(races))
	}

	failures := 0
	for i, r := range races {
		critical, tooEarly, tooLate := runBasicRace(r, cfg)
		ok := critical >= 100

		level := slog.LevelInfo
		if !ok {
			level = slog.LevelError
			failures++
		}
		slog.Log(context.Background(), level, "race scenario finished",
			"index", i,
			"a", r.a, "b", r.b,
			"overlap", critical, "too_early", tooEarly, "too_late", tooLate,
			"ok", ok)
	}

	if failures > 0 {
		fmt.Fprintf(os.Stderr, "%d/%d scenarios failed to converge\n", failures, len(races))
		os.Exit(1)
	}
}

// runBasicRace runs one race table row to completion (or exhaustion of
// its iteration budget) and returns the overlap / too-early / too-late
// counts deduced from the shared 'c' counter: (cs,ct)=(1,2) means A's
// window closed before B's opened, (3,4) means B's closed before A's
// opened, anything else means they overlapped.
func runBasicRace(r raceRow, cfg basicConfig) (critical, tooEarly, tooLate int) {
	var c atomic.Int64

	p := fzsync.New(fzsync.WithMinSamples(10000), fzsync.WithExecLoops(2_000_000))

	worker := func(b *fzsync.BView) {
		for b.RunB() {
			b.StartRaceB()
			scaledDelay(r.b.criticalS)
			c.Add(1)
			scaledDelay(r.b.criticalT)
			c.Add(1)
			scaledDelay(r.b.returnT)
			b.EndRaceB()
		}
	}

	if err := p.Reset(worker); err != nil {
		slog.Error("reset failed", "error", err)
		return
	}
	defer p.Cleanup()

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
			critical++
		}

		if r := c.Add(-4); r != 0 {
			slog.Error("shared counter out of balance", "cs", cs, "ct", ct, "r", r)
			return
		}

		if cfg.debug && p.ExecLoop() == 5000 {
			slog.Debug("mid-run diagnostic", "delay", p.Delay(), "sampling", p.Sampling())
		}

		if critical > 100 {
			break
		}
	}

	return critical, tooEarly, tooLate
}
