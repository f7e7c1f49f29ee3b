// winner_test.go tests the 'fzsync-demo winner' command's argument parsing.
package main

import "testing"

func TestParseWinnerArgs_RequiresPath(t *testing.T) {
	_, err := parseWinnerArgs([]string{})
	if err == nil {
		t.Error("parseWinnerArgs() with no arguments = nil error, want non-nil")
	}
}

func TestParseWinnerArgs_Path(t *testing.T) {
	cfg, err := parseWinnerArgs([]string{"-f", "/tmp/out.csv"})
	if err != nil {
		t.Fatalf("parseWinnerArgs() error = %v", err)
	}
	if cfg.recordPath != "/tmp/out.csv" {
		t.Errorf("recordPath = %q, want %q", cfg.recordPath, "/tmp/out.csv")
	}
}

func TestParseWinnerArgs_MissingPathValue(t *testing.T) {
	_, err := parseWinnerArgs([]string{"-f"})
	if err == nil {
		t.Error("parseWinnerArgs() with a dangling -f = nil error, want non-nil")
	}
}

func TestParseWinnerArgs_UnknownFlag(t *testing.T) {
	_, err := parseWinnerArgs([]string{"-bogus"})
	if err == nil {
		t.Error("parseWinnerArgs() with an unknown flag = nil error, want non-nil")
	}
}
