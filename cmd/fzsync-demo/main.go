// Command fzsync-demo runs the fuzzy-sync demonstration scenarios: the
// basic race-alignment table (subcommand "basic") and the
// winner-amplification scenario (subcommand "winner").
//
// Usage:
//
//	fzsync-demo basic [-debug]
//	fzsync-demo winner -f PATH
//
// Exit code 0 on success, 1 on setup error or a scenario that fails to
// converge within its iteration budget.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

const version = "0.1.0"

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: "15:04:05",
	})))

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "basic":
		basicCommand(args)
	case "winner":
		winnerCommand(args)
	case "version", "--version", "-v":
		fmt.Printf("fzsync-demo version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`fzsync-demo - Fuzzy Sync demonstration CLI

USAGE:
    fzsync-demo <command> [arguments]

COMMANDS:
    basic      Run the basic race-alignment scenario table
    winner     Run the winner-amplification scenario, recording a CSV
    version    Show version information
    help       Show this help message

EXAMPLES:
    fzsync-demo basic -debug
    fzsync-demo winner -f /tmp/winner.csv
`)
}
