// basic_test.go tests the 'fzsync-demo basic' command's argument parsing.
package main

import "testing"

func TestParseBasicArgs_NoFlags(t *testing.T) {
	cfg := parseBasicArgs([]string{})
	if cfg.debug {
		t.Error("debug = true with no arguments, want false")
	}
}

func TestParseBasicArgs_Debug(t *testing.T) {
	cfg := parseBasicArgs([]string{"-debug"})
	if !cfg.debug {
		t.Error("debug = false with -debug argument, want true")
	}
}

func TestParseBasicArgs_UnknownArgsIgnored(t *testing.T) {
	// parseBasicArgs never errors; unrecognized arguments are silently
	// ignored, matching its single-flag shape.
	cfg := parseBasicArgs([]string{"-verbose", "-debug"})
	if !cfg.debug {
		t.Error("debug = false despite -debug among the arguments, want true")
	}
}

func TestRacesTableShape(t *testing.T) {
	if len(races) != 24 {
		t.Fatalf("len(races) = %d, want 24", len(races))
	}

	// Row 0 is the fully degenerate case (every delay zero on both
	// sides); every other row must keep at least one real critical
	// section so the overlap bookkeeping has something to observe.
	for i, r := range races[1:] {
		if r.a.criticalT == 0 && r.b.criticalT == 0 {
			t.Errorf("race %d: both sides have a zero-length critical section", i+1)
		}
	}
}
