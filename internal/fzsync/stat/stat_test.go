package stat

import (
	"math"
	"testing"

	"github.com/racewindow/fuzzysync/internal/fzsync/clock"
)

func TestUpdateSeedsFirstSample(t *testing.T) {
	var s Stat

	s.Update(DefaultAlpha, 100)

	if s.Avg != 100 {
		t.Errorf("Avg = %v, want 100 (first sample should seed directly)", s.Avg)
	}
	if s.AvgDev != 0 {
		t.Errorf("AvgDev = %v, want 0 after a single sample", s.AvgDev)
	}
}

func TestUpdateSmoothsSubsequentSamples(t *testing.T) {
	var s Stat

	s.Update(0.25, 100)
	s.Update(0.25, 200)

	wantAvg := 100 + 0.25*(200-100)
	if math.Abs(s.Avg-wantAvg) > 1e-9 {
		t.Errorf("Avg = %v, want %v", s.Avg, wantAvg)
	}

	// The deviation term uses the pre-update mean (100), the same old
	// state every other input to the update rule reads.
	wantDev := 0 + 0.25*(math.Abs(200-100)-0)
	if math.Abs(s.AvgDev-wantDev) > 1e-9 {
		t.Errorf("AvgDev = %v, want %v", s.AvgDev, wantDev)
	}
}

func TestAvgDevNeverNegative(t *testing.T) {
	var s Stat
	samples := []float64{10, -500, 300, -10, 0, 1e6, -1e6}

	for _, x := range samples {
		s.Update(DefaultAlpha, x)
		if s.AvgDev < 0 {
			t.Fatalf("AvgDev went negative (%v) after sample %v", s.AvgDev, x)
		}
	}
}

func TestUpdateDiffUsesStampOrder(t *testing.T) {
	var s Stat

	start := clock.Now()
	end := clock.Now()

	s.UpdateDiff(DefaultAlpha, end, start)

	if s.Avg < 0 {
		t.Errorf("UpdateDiff(end, start) produced a negative sample (%v) for end after start", s.Avg)
	}
}

func TestResetClearsSeeding(t *testing.T) {
	var s Stat
	s.Update(DefaultAlpha, 42)

	s.Reset()

	if s.Seeded() {
		t.Error("Seeded() = true after Reset, want false")
	}
	if s.Avg != 0 || s.AvgDev != 0 {
		t.Errorf("Reset left Avg=%v AvgDev=%v, want zero", s.Avg, s.AvgDev)
	}
}
