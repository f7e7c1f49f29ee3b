// winner.go implements the 'fzsync-demo winner' command: two sides race
// to assign a shared byte, and every iteration's outcome is recorded as a
// CSV row.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/racewindow/fuzzysync"
	"github.com/racewindow/fuzzysync/internal/fzsync/csvrecord"
)

type winnerConfig struct {
	recordPath string
}

// readRacy performs one real load of the racy byte. The noinline pragma
// keeps the compiler from folding consecutive reads into one, which would
// collapse A's race window to nothing.
//
//go:noinline
func readRacy(p *byte) byte { return *p }

func parseWinnerArgs(args []string) (winnerConfig, error) {
	var cfg winnerConfig
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-f":
			if i+1 >= len(args) {
				return cfg, fmt.Errorf("-f flag requires a PATH argument")
			}
			i++
			cfg.recordPath = args[i]
		default:
			return cfg, fmt.Errorf("unknown argument: %s", args[i])
		}
	}
	if cfg.recordPath == "" {
		return cfg, fmt.Errorf("-f PATH is required")
	}
	return cfg, nil
}

func winnerCommand(args []string) {
	cfg, err := parseWinnerArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(cfg.recordPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", cfg.recordPath, err)
		os.Exit(1)
	}
	defer f.Close()

	rec, err := csvrecord.New(f, slog.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing recorder: %v\n", err)
		os.Exit(1)
	}

	// The racy variable: written by A immediately before the start
	// barrier, overwritten by B inside the race window, and conditionally
	// rewritten by A when its two in-window reads straddle B's write.
	// Left deliberately non-atomic -- this is the variable the whole demo
	// exists to race on, not a library counter, and "fixing" it with an
	// atomic would remove the race being demonstrated.
	var winner byte

	p := fzsync.New(fzsync.WithExecLoops(100000))

	worker := func(b *fzsync.BView) {
		for b.RunB() {
			b.StartRaceB()
			time.Sleep(time.Nanosecond)
			winner = 'B'
			b.EndRaceB()
		}
	}

	if err := p.Reset(worker); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
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

		if err := rec.WriteRow(winner, p.AStart(), p.BStart(), p.AEnd(), p.BEnd()); err != nil {
			slog.Error("failed to record row", "error", err)
		}
	}

	if err := rec.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing records: %v\n", err)
		os.Exit(1)
	}

	slog.Info("winner scenario finished", "run_id", rec.RunID(), "iterations", aWins+bWins, "a_wins", aWins, "b_wins", bWins)
}
