package fzsync

import "testing"

func TestNewAppliesOptions(t *testing.T) {
	p := New(WithMinSamples(777))
	if !p.Sampling() {
		t.Error("a freshly constructed Pair should start in sampling mode")
	}
	if p.Delay() != 0 {
		t.Errorf("Delay() on a fresh Pair = %d, want 0", p.Delay())
	}
	if New(WithMinSamples(0)).Sampling() {
		t.Error("WithMinSamples(0) not applied: Sampling() = true, want false")
	}
}

func TestResetRunCleanupRoundTrip(t *testing.T) {
	p := New(WithMinSamples(4))

	err := p.Reset(func(b *BView) {
		for b.RunB() {
			b.StartRaceB()
			b.EndRaceB()
		}
	})
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	count := 0
	for p.RunA() {
		p.StartRaceA()
		p.EndRaceA()
		count++
		if count > 20 {
			break
		}
	}

	p.Cleanup()
	p.Cleanup()

	if count == 0 {
		t.Error("RunA() never returned true")
	}
}
